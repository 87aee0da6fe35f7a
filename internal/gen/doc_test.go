package gen_test

import (
	"strings"
	"testing"

	"github.com/carp-rpc/carp/internal/gen"
)

func TestFormatDocEmptyIsNil(t *testing.T) {
	if lines := gen.FormatDoc("   "); lines != nil {
		t.Fatalf("expected nil lines for blank input, got %v", lines)
	}
}

func TestFormatDocStripsMarkup(t *testing.T) {
	lines := gen.FormatDoc("Deposits **funds** into an account.")
	joined := strings.Join(lines, " ")
	if strings.Contains(joined, "*") {
		t.Fatalf("expected emphasis markers stripped, got %q", joined)
	}
	if !strings.Contains(joined, "Deposits") || !strings.Contains(joined, "funds") {
		t.Fatalf("expected prose preserved, got %q", joined)
	}
}

func TestFormatDocMultipleParagraphs(t *testing.T) {
	lines := gen.FormatDoc("First paragraph.\n\nSecond paragraph.")
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "First paragraph.") || !strings.Contains(joined, "Second paragraph.") {
		t.Fatalf("expected both paragraphs present, got %q", joined)
	}
}
