package idl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carp-rpc/carp/internal/idl"
)

func TestPropertiesFileRoundTrip(t *testing.T) {
	props := idl.Properties{
		"root.type":      "module",
		"root.name":      "bank",
		"root.doc":       "Line one.\nLine two has a\ttab.",
		"root.type.0.doc": "back\\slash",
	}
	path := filepath.Join(t.TempDir(), "bank.module")
	if err := idl.WritePropertiesFile(path, props); err != nil {
		t.Fatalf("WritePropertiesFile: %v", err)
	}
	got, err := idl.ReadPropertiesFile(path)
	if err != nil {
		t.Fatalf("ReadPropertiesFile: %v", err)
	}
	if len(got) != len(props) {
		t.Fatalf("got %d properties, want %d", len(got), len(props))
	}
	for k, want := range props {
		if v, ok := got.Get(k); !ok || v != want {
			t.Fatalf("key %q: got %q, want %q", k, v, want)
		}
	}
}

func TestReadPropertiesFileMissingTab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.module")
	if err := os.WriteFile(path, []byte("root.type\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	if _, err := idl.ReadPropertiesFile(path); err == nil {
		t.Fatalf("expected an error for a line with no tab separator")
	}
}
