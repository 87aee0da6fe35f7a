package idl

import (
	"fmt"
	"sort"
	"strconv"
)

// Properties is the flat, string-keyed property store type nodes persist
// themselves into (spec §4.1, §6). Composite types use numbered
// sub-prefixes ("elem.0.", "elem.1.", ...) with a sibling "<prefix>count"
// integer, exactly as spec §6 describes for the top-level module file.
type Properties map[string]string

// Set stores a single flat value.
func (p Properties) Set(key, value string) { p[key] = value }

// Get returns a flat value and whether it was present.
func (p Properties) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// MustGet returns a flat value or an error naming the missing key.
func (p Properties) MustGet(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("idl: missing property %q", key)
	}
	return v, nil
}

// SetCount writes the `<prefix>count` sibling used by every repeated
// sub-structure (sequence/set elements are singular so they don't need
// one, but structure members, call parameters, responses, enumeration
// constants, and module imports/types all do).
func (p Properties) SetCount(prefix string, n int) {
	p[prefix+"count"] = strconv.Itoa(n)
}

// Count reads the `<prefix>count` sibling, defaulting to 0 when absent.
func (p Properties) Count(prefix string) (int, error) {
	v, ok := p[prefix+"count"]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("idl: invalid count at %q: %v", prefix+"count", err)
	}
	return n, nil
}

// Sub returns the indexed numbered sub-prefix "<prefix><i>.".
func Sub(prefix string, i int) string {
	return fmt.Sprintf("%s%d.", prefix, i)
}

// Keys returns the sorted key list, useful for deterministic debug
// output and golden-file tests.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
