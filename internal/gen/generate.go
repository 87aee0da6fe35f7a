package gen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cbroglie/mustache"
)

// Request bundles what Generate needs to render one module's generated
// source. Provider and Files default to the embedded templates/go tree
// when left nil — a caller only sets them to point Generate at a
// different template set (as tests do, against a temporary directory).
type Request struct {
	Module   *ModuleData
	OutDir   string
	Provider TemplateProvider
	Files    []GeneratedFile
}

type partialProvider struct {
	impl    TemplateProvider
	dirname string
}

func (p *partialProvider) Get(name string) (string, error) {
	return p.impl(filepath.Join(p.dirname, name) + ".mustache")
}

// Generate renders every template in req.Files against req.Module,
// writing output files under req.OutDir: load each template, render
// with mustache.RenderPartials against the template data, write the
// result.
func Generate(req *Request) error {
	provider := req.Provider
	if provider == nil {
		provider = DefaultTemplates
	}
	files := req.Files
	if files == nil {
		files = GeneratedFiles()
	}
	outDir := req.OutDir
	if outDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("gen: %w", err)
		}
		outDir = wd
	}

	var errs []error
	for _, f := range files {
		contents, err := provider(f.TemplatePath)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.TemplatePath, err))
			continue
		}
		destination := filepath.Join(outDir, f.OutputPath)
		if err := os.MkdirAll(filepath.Dir(destination), 0o777); err != nil {
			errs = append(errs, err)
			continue
		}
		nested := &partialProvider{impl: provider, dirname: filepath.Dir(f.TemplatePath)}
		rendered, err := mustache.RenderPartials(contents, nested, req.Module)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.TemplatePath, err))
			continue
		}
		if err := os.WriteFile(destination, []byte(rendered), 0o666); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("gen: errors generating output files: %w", errors.Join(errs...))
	}
	return nil
}
