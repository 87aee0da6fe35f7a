// Command carpgen is CARP's source generator entry point (spec §3,
// "Source generator"): it loads carp.toml, reads the compiled module
// file it names, qualifies the module against its own imports and local
// declarations, and renders the embedded mustache templates into the
// configured output directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/carp-rpc/carp/internal/config"
	"github.com/carp-rpc/carp/internal/gen"
	"github.com/carp-rpc/carp/internal/idl"
)

func main() {
	configPath := flag.String("config", "carp.toml", "path to carp.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("carpgen failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.General.ModuleFile == "" {
		return fmt.Errorf("carpgen: %s has no general.module-file configured", configPath)
	}
	if cfg.General.PackageName == "" {
		return fmt.Errorf("carpgen: %s has no general.package-name configured", configPath)
	}

	mod, err := loadModule(cfg.General.ModuleFile)
	if err != nil {
		return err
	}

	qualified, unresolved, err := idl.QualifyModule(mod)
	if err != nil {
		return fmt.Errorf("carpgen: qualifying %s: %w", mod.Name, err)
	}
	for _, u := range unresolved {
		slog.Warn("unresolved reference", "name", u.Name, "site", u.Site)
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("carpgen: %d unresolved reference(s) in %s", len(unresolved), mod.Name)
	}

	data, err := gen.BuildModuleData(qualified, cfg.General.PackageName)
	if err != nil {
		return fmt.Errorf("carpgen: %w", err)
	}

	outDir := cfg.General.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := gen.Generate(&gen.Request{Module: data, OutDir: outDir}); err != nil {
		return err
	}
	slog.Info("generated module", "module", qualified.Name, "out-dir", outDir)
	return nil
}

func loadModule(path string) (idl.Module, error) {
	props, err := idl.ReadPropertiesFile(path)
	if err != nil {
		return idl.Module{}, fmt.Errorf("carpgen: %w", err)
	}
	t, err := idl.Load("root.", props, idl.DefaultLoader)
	if err != nil {
		return idl.Module{}, fmt.Errorf("carpgen: loading %s: %w", path, err)
	}
	mod, ok := t.(idl.Module)
	if !ok {
		return idl.Module{}, fmt.Errorf("carpgen: %s describes a %s, not a module", path, t.Kind())
	}
	return mod, nil
}
