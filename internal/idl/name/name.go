// Package name implements ExternalName, the dotted/hyphenated identifier
// used throughout the CARP IDL for module, type, call and member names.
package name

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

var wordPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// External is an ordered, non-empty sequence of words. Each word matches
// `letter (letter|digit|hyphen)*`. Equality is structural; ordering is
// lexicographic over words.
type External struct {
	words []string
}

// New builds an External name from one or more words, validating each.
func New(words ...string) (External, error) {
	if len(words) == 0 {
		return External{}, fmt.Errorf("name: at least one word is required")
	}
	out := make([]string, len(words))
	for i, w := range words {
		if !wordPattern.MatchString(w) {
			return External{}, fmt.Errorf("name: invalid word %q", w)
		}
		out[i] = w
	}
	return External{words: out}, nil
}

// MustNew is New but panics on an invalid name; reserved for literals
// known to be valid at compile time (built-in names, generated code).
func MustNew(words ...string) External {
	n, err := New(words...)
	if err != nil {
		panic(err)
	}
	return n
}

// Parse splits a dotted external name such as "carp.bank.Account" into
// its words.
func Parse(dotted string) (External, error) {
	if dotted == "" {
		return External{}, fmt.Errorf("name: empty qualified name")
	}
	return New(strings.Split(dotted, ".")...)
}

// IsLeaf reports whether the name has a single word.
func (n External) IsLeaf() bool {
	return len(n.words) == 1
}

// Parent returns all but the last word, or the empty name if the
// receiver is already a leaf.
func (n External) Parent() External {
	if len(n.words) <= 1 {
		return External{}
	}
	return External{words: append([]string(nil), n.words[:len(n.words)-1]...)}
}

// Leaf returns the last word.
func (n External) Leaf() string {
	if len(n.words) == 0 {
		return ""
	}
	return n.words[len(n.words)-1]
}

// Empty reports whether the name has no words at all (only ever
// produced by Parent of a leaf).
func (n External) Empty() bool {
	return len(n.words) == 0
}

// Resolve concatenates the receiver with other, producing a qualified
// name. `other` is typically a leaf name being qualified against its
// enclosing module.
func (n External) Resolve(other External) External {
	words := make([]string, 0, len(n.words)+len(other.words))
	words = append(words, n.words...)
	words = append(words, other.words...)
	return External{words: words}
}

// String renders the dotted form, e.g. "carp.bank.Account".
func (n External) String() string {
	return strings.Join(n.words, ".")
}

// Words returns a copy of the underlying word sequence.
func (n External) Words() []string {
	return append([]string(nil), n.words...)
}

// Equal reports structural equality.
func (n External) Equal(o External) bool {
	if len(n.words) != len(o.words) {
		return false
	}
	for i := range n.words {
		if n.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Less implements the total lexicographic order over words, used to
// keep emitted diagnostics and test fixtures deterministic.
func (n External) Less(o External) bool {
	for i := 0; i < len(n.words) && i < len(o.words); i++ {
		if n.words[i] != o.words[i] {
			return n.words[i] < o.words[i]
		}
	}
	return len(n.words) < len(o.words)
}

// pascalWord re-cases a single hyphenated word into PascalCase, treating
// hyphens as word separators (e.g. "bad-status-mod" -> "BadStatusMod").
func pascalWord(w string) string {
	return strcase.ToCamel(strings.ReplaceAll(w, "-", "_"))
}

// AsNativeClassName renders the full name as a single PascalCase Go
// identifier, e.g. ["words-with-hyphens"] -> "WordsWithHyphens", and
// ["bank", "Account"] -> "BankAccount".
func (n External) AsNativeClassName() string {
	var b strings.Builder
	for _, w := range n.words {
		b.WriteString(pascalWord(w))
	}
	return b.String()
}

// AsNativeMethodName renders the leaf word as a camelCase Go method or
// field name, e.g. "wordsWithHyphens".
func (n External) AsNativeMethodName() string {
	if n.Empty() {
		return ""
	}
	cls := pascalWord(n.Leaf())
	if cls == "" {
		return cls
	}
	return strings.ToLower(cls[:1]) + cls[1:]
}

// AsNativeConstantName renders the leaf word as a SCREAMING_SNAKE_CASE
// constant name, e.g. "WORDS_WITH_HYPHENS".
func (n External) AsNativeConstantName() string {
	if n.Empty() {
		return ""
	}
	return strcase.ToScreamingSnake(strings.ReplaceAll(n.Leaf(), "-", "_"))
}
