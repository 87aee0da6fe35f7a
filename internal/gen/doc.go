// Package gen implements CARP's source generator: projecting a
// qualified idl.Module into mustache template data and rendering it
// into native Go declarations in two stages, template data projection
// followed by cbroglie/mustache rendering.
package gen

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FormatDoc renders a documentation comment's markdown source, as written
// in the IDL, into plain-text lines ready for a generated Go doc comment.
// The `//` prefix is added by the template, not here: this only splits
// into trimmed lines, the caller adds the comment marker.
//
// This walks the parsed AST collecting text runs rather than rendering
// full CommonMark semantics (list bullets, emphasis markers, code fences
// are flattened to their plain text) — a doc comment only needs the
// prose stripped of markup, not a faithful re-rendering.
func FormatDoc(markdown string) []string {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}
	source := []byte(markdown)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var lines []string
	var cur strings.Builder
	flush := func() {
		lines = append(lines, strings.TrimRight(cur.String(), " "))
		cur.Reset()
	}

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading:
				flush()
				lines = append(lines, "")
			case *ast.ListItem:
				flush()
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			cur.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	if cur.Len() > 0 {
		flush()
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
