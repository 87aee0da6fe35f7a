package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carp-rpc/carp/internal/idl"
	"github.com/carp-rpc/carp/internal/idl/name"
)

func bankProperties(t *testing.T) idl.Properties {
	t.Helper()
	account := idl.NewStructure([]string{"owner"}, map[string]idl.StructureMember{
		"owner": {Type: idl.String{}, Required: true},
	})
	mod := idl.NewModule(name.MustNew("bank"), nil, nil, []string{"Account"}, map[string]idl.Type{"Account": account})
	props := idl.Properties{}
	mod.Describe("root.", props)
	return props
}

func TestRunGeneratesFromConfiguredModule(t *testing.T) {
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "bank.module")
	if err := idl.WritePropertiesFile(modulePath, bankProperties(t)); err != nil {
		t.Fatalf("WritePropertiesFile: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	configPath := filepath.Join(dir, "carp.toml")
	contents := "[general]\n" +
		"module-file = " + toToml(modulePath) + "\n" +
		"package-name = \"bank\"\n" +
		"output-dir = " + toToml(outDir) + "\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o666); err != nil {
		t.Fatal(err)
	}

	if err := run(configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	generated, err := os.ReadFile(filepath.Join(outDir, "types.go"))
	if err != nil {
		t.Fatalf("reading generated types.go: %v", err)
	}
	if !strings.Contains(string(generated), "type Account struct") {
		t.Fatalf("expected Account struct in generated output, got:\n%s", generated)
	}
	if !strings.Contains(string(generated), "package bank") {
		t.Fatalf("expected package bank in generated output, got:\n%s", generated)
	}
}

func TestRunRequiresModuleFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "carp.toml")
	if err := os.WriteFile(configPath, []byte("[general]\npackage-name = \"bank\"\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	if err := run(configPath); err == nil {
		t.Fatalf("expected an error when general.module-file is unset")
	}
}

func toToml(path string) string {
	return "\"" + strings.ReplaceAll(path, "\\", "\\\\") + "\""
}
