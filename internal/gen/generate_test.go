package gen_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carp-rpc/carp/internal/gen"
)

func TestGeneratedFilesFindsEmbeddedTemplate(t *testing.T) {
	files := gen.GeneratedFiles()
	found := false
	for _, f := range files {
		if filepath.Base(f.OutputPath) == "types.go" {
			found = true
		}
		if f.TemplatePath == "" || f.OutputPath == "" {
			t.Fatalf("empty path in generated file entry: %+v", f)
		}
	}
	if !found {
		t.Fatalf("expected templates/go/types.go.mustache to produce types.go, got %+v", files)
	}
}

func TestGenerateRendersToOutDir(t *testing.T) {
	dir := t.TempDir()
	templateDir := filepath.Join(dir, "templates")
	if err := os.MkdirAll(templateDir, 0o777); err != nil {
		t.Fatal(err)
	}
	templatePath := filepath.Join(templateDir, "hello.go.mustache")
	if err := os.WriteFile(templatePath, []byte("package {{PackageName}}\n"), 0o666); err != nil {
		t.Fatal(err)
	}

	provider := func(name string) (string, error) {
		contents, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		return string(contents), nil
	}

	outDir := filepath.Join(dir, "out")
	err := gen.Generate(&gen.Request{
		Module:   &gen.ModuleData{PackageName: "bank"},
		OutDir:   outDir,
		Provider: provider,
		Files:    []gen.GeneratedFile{{TemplatePath: "templates/hello.go.mustache", OutputPath: "hello.go"}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	contents, err := os.ReadFile(filepath.Join(outDir, "hello.go"))
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	if string(contents) != "package bank\n" {
		t.Fatalf("generated contents = %q", contents)
	}
}
