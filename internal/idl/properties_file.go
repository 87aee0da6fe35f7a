package idl

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WritePropertiesFile persists props as a CARP module file (spec §6): one
// tab-separated "key<TAB>value" line per property, in Keys order.
// Backslash, tab and newline bytes are backslash-escaped in the value so
// a multi-line documentation comment round-trips intact.
func WritePropertiesFile(path string, props Properties) error {
	var b strings.Builder
	for _, k := range props.Keys() {
		b.WriteString(k)
		b.WriteByte('\t')
		b.WriteString(escapePropertyValue(props[k]))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o666); err != nil {
		return fmt.Errorf("idl: writing %s: %w", path, err)
	}
	return nil
}

// ReadPropertiesFile reads a module file written by WritePropertiesFile.
func ReadPropertiesFile(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("idl: opening %s: %w", path, err)
	}
	defer f.Close()

	props := Properties{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		key, value, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("idl: %s:%d: missing tab separator", path, line)
		}
		props[key] = unescapePropertyValue(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("idl: reading %s: %w", path, err)
	}
	return props, nil
}

func escapePropertyValue(v string) string {
	r := strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n")
	return r.Replace(v)
}

func unescapePropertyValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(v[i])
	}
	return b.String()
}
