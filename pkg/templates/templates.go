// Package templates generates a working application from embedded
// scaffold packs. It is the last rung of the strategy ladder: fully
// deterministic, no provider involved, always produces a runnable app.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"appforge/pkg/domain"
	"appforge/pkg/logx"
)

//go:embed packs
var packsFS embed.FS

// Manifest describes one scaffold pack.
type Manifest struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Files       []FileEntry `yaml:"files"`
}

// FileEntry maps one pack template to its target path. PerEntity
// entries render once per domain entity, with the entity available to
// both the target path and the template body.
type FileEntry struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	PerEntity bool   `yaml:"per_entity"`
}

// Data is the rendering context shared by all pack templates.
type Data struct {
	AppName      string
	Intent       string
	Entities     []domain.Entity
	Pages        []domain.Page
	Routes       []domain.Route
	AuthRequired bool
	TechStack    []string

	// Entity is set for per-entity renders only.
	Entity *domain.Entity
}

// Generator renders scaffold packs into a workspace.
type Generator struct {
	logger *logx.Logger
}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{logger: logx.NewLogger("templates")}
}

// packFor maps an archetype to a pack name. Everything with a UI uses
// the webapp pack.
func packFor(archetype domain.Archetype) string {
	if archetype == domain.ArchetypeAPIService {
		return "api"
	}
	return "webapp"
}

// Generate renders the pack for the model's archetype into root and
// returns the written paths in render order.
func (g *Generator) Generate(root, appName, intent string, model *domain.Model) ([]string, error) {
	packName := packFor(model.Archetype)
	manifest, err := loadManifest(packName)
	if err != nil {
		return nil, err
	}

	data := &Data{
		AppName:      appName,
		Intent:       intent,
		Entities:     model.Entities,
		Pages:        model.Pages,
		Routes:       model.Routes,
		AuthRequired: model.AuthRequired,
		TechStack:    model.TechStack,
	}

	var written []string
	for _, entry := range manifest.Files {
		if entry.PerEntity {
			for i := range model.Entities {
				scoped := *data
				scoped.Entity = &model.Entities[i]
				path, err := g.renderFile(root, packName, entry, &scoped)
				if err != nil {
					return written, err
				}
				written = append(written, path)
			}
			continue
		}
		path, err := g.renderFile(root, packName, entry, data)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	g.logger.Info("generated %d files from pack %s", len(written), packName)
	return written, nil
}

func (g *Generator) renderFile(root, packName string, entry FileEntry, data *Data) (string, error) {
	source, err := packsFS.ReadFile("packs/" + packName + "/" + entry.Source)
	if err != nil {
		return "", fmt.Errorf("pack %s missing template %s: %w", packName, entry.Source, err)
	}

	target, err := renderString(entry.Target, data)
	if err != nil {
		return "", fmt.Errorf("failed to render target path %q: %w", entry.Target, err)
	}
	content, err := renderString(string(source), data)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", entry.Source, err)
	}

	dest := filepath.Join(root, filepath.FromSlash(target))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

func renderString(text string, data *Data) (string, error) {
	tmpl, err := template.New("file").Funcs(template.FuncMap{
		"title": titleCase,
		"join":  strings.Join,
	}).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func loadManifest(packName string) (*Manifest, error) {
	raw, err := packsFS.ReadFile("packs/" + packName + "/manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("pack %q not found: %w", packName, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest for pack %q: %w", packName, err)
	}
	return &manifest, nil
}

// Packs lists the embedded pack names.
func Packs() []string {
	entries, err := packsFS.ReadDir("packs")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}
