package gen

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

//go:embed templates/go
var templatesFS embed.FS

// GeneratedFile pairs one input template with the output file it renders
// to.
type GeneratedFile struct {
	TemplatePath string
	OutputPath   string
}

// TemplateProvider loads one template's contents by its full path
// relative to the provider's own root.
type TemplateProvider func(templateName string) (string, error)

// DefaultTemplates reads a template from the embedded templates/go tree.
func DefaultTemplates(templateName string) (string, error) {
	contents, err := templatesFS.ReadFile(templateName)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

// GeneratedFiles walks the embedded template tree and derives the
// output file list.
func GeneratedFiles() []GeneratedFile {
	return walkTemplatesDir(templatesFS, "templates/go")
}

// walkTemplatesDir matches *.mustache files under root, skipping partials
// (a bare "<name>.mustache" with no other dot in its name, included by
// other templates rather than rendered on its own) and deriving each
// output path by trimming the .mustache suffix — "types.go.mustache"
// produces "types.go".
func walkTemplatesDir(fsys fs.FS, root string) []GeneratedFile {
	var result []GeneratedFile
	fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".mustache" {
			return nil
		}
		if strings.Count(d.Name(), ".") == 1 {
			return nil
		}
		dirname := filepath.Dir(strings.TrimPrefix(path, root))
		basename := strings.TrimSuffix(d.Name(), ".mustache")
		result = append(result, GeneratedFile{
			TemplatePath: path,
			OutputPath:   filepath.Join(dirname, basename),
		})
		return nil
	})
	return result
}
