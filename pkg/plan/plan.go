// Package plan converts a domain model into an explicit, ordered list
// of file specifications. The plan is the contract the constrained
// executor is held to: it may only write files listed here.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"appforge/pkg/domain"
	"appforge/pkg/translate"
)

// Category classifies what role a planned file plays.
type Category string

const (
	CategoryManifest Category = "manifest"
	CategoryEntry    Category = "entry"
	CategoryReadme   Category = "readme"
	CategoryConfig   Category = "config"
	CategoryDatabase Category = "database"
	CategoryAuth     Category = "auth"
	CategoryModel    Category = "model"
	CategoryRoute    Category = "route"
	CategoryPage     Category = "page"
)

// FileSpec describes one file to generate: what it is for, what
// capabilities it exposes to other files, and what it requires.
type FileSpec struct {
	Path      string   `json:"path"`
	Purpose   string   `json:"purpose"`
	Category  Category `json:"category"`
	Exposes   []string `json:"exposes,omitempty"`
	Requires  []string `json:"requires,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// Plan is the ordered file list handed to the executor.
type Plan struct {
	AppName   string           `json:"app_name"`
	Archetype domain.Archetype `json:"archetype"`
	Files     []FileSpec       `json:"files"`

	// Unresolved lists required capabilities no file exposes. They
	// constrain but do not block generation.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Paths returns the plan's file paths in order.
func (p *Plan) Paths() []string {
	paths := make([]string, len(p.Files))
	for i := range p.Files {
		paths[i] = p.Files[i].Path
	}
	return paths
}

// Build constructs a generation plan. It fails only when the domain
// model is structurally empty; the caller is expected to have gated on
// the critic first.
func Build(appName string, model *domain.Model, translated *translate.TranslatedArchitecture) (*Plan, error) {
	if model.Empty() {
		return nil, fmt.Errorf("domain model is empty; nothing to plan")
	}
	if appName == "" {
		appName = "app"
	}

	files := scaffoldFiles(appName, model, translated)
	files = append(files, infraFiles(model, translated)...)
	files = append(files, entityFiles(model)...)
	files = append(files, pageFiles(model)...)

	unresolved := resolveDependencies(files)
	ordered := topoSort(files)

	return &Plan{
		AppName:    appName,
		Archetype:  model.Archetype,
		Files:      ordered,
		Unresolved: unresolved,
	}, nil
}

// scaffoldFiles is the fixed set every plan carries.
func scaffoldFiles(appName string, model *domain.Model, translated *translate.TranslatedArchitecture) []FileSpec {
	entryRequires := []string{}
	for i := range model.Entities {
		entryRequires = append(entryRequires, "routes:"+model.Entities[i].Name)
	}
	if model.AuthRequired {
		entryRequires = append(entryRequires, "auth")
	}

	return []FileSpec{
		{
			Path:     "package.json",
			Purpose:  fmt.Sprintf("Project manifest for %s with dependencies for %s.", appName, strings.Join(model.TechStack, ", ")),
			Category: CategoryManifest,
			Exposes:  []string{"manifest"},
		},
		{
			Path:     "src/index.js",
			Purpose:  "Application entry point: configures the server and mounts all routes.",
			Category: CategoryEntry,
			Exposes:  []string{"app"},
			Requires: entryRequires,
		},
		{
			Path:     "README.md",
			Purpose:  fmt.Sprintf("Describes %s, its setup steps, and required environment variables (%s).", appName, strings.Join(translated.EnvVars, ", ")),
			Category: CategoryReadme,
		},
	}
}

// infraFiles adds per-capability infrastructure from the component
// contract table: database client, auth middleware, env config.
func infraFiles(model *domain.Model, translated *translate.TranslatedArchitecture) []FileSpec {
	var files []FileSpec
	if translated.HasKind(translate.KindDatabase) {
		files = append(files, FileSpec{
			Path:     "src/db.js",
			Purpose:  "Database client setup and connection handling.",
			Category: CategoryDatabase,
			Exposes:  []string{"db_client"},
		})
	}
	if model.AuthRequired {
		requires := []string{}
		if translated.HasKind(translate.KindDatabase) {
			requires = append(requires, "db_client")
		}
		files = append(files, FileSpec{
			Path:     "src/auth.js",
			Purpose:  "Authentication middleware: session validation and login handling.",
			Category: CategoryAuth,
			Exposes:  []string{"auth"},
			Requires: requires,
		})
	}
	if len(translated.EnvVars) > 0 {
		files = append(files, FileSpec{
			Path:     ".env.example",
			Purpose:  fmt.Sprintf("Documents required environment variables: %s.", strings.Join(translated.EnvVars, ", ")),
			Category: CategoryConfig,
		})
	}
	return files
}

// entityFiles adds one model and one route module per entity.
func entityFiles(model *domain.Model) []FileSpec {
	var files []FileSpec
	routesByEntity := map[string][]string{}
	for i := range model.Routes {
		route := &model.Routes[i]
		routesByEntity[route.Entity] = append(routesByEntity[route.Entity],
			route.Method+" "+route.Path)
	}

	for i := range model.Entities {
		entity := &model.Entities[i]

		var fieldNames []string
		for j := range entity.Fields {
			fieldNames = append(fieldNames, entity.Fields[j].Name)
		}
		files = append(files, FileSpec{
			Path:     "src/models/" + entity.Name + ".js",
			Purpose:  fmt.Sprintf("Data model for %s with fields %s.", entity.Name, strings.Join(fieldNames, ", ")),
			Category: CategoryModel,
			Exposes:  []string{"model:" + entity.Name},
			Requires: []string{"db_client"},
		})

		routeRequires := []string{"model:" + entity.Name}
		if model.AuthRequired {
			routeRequires = append(routeRequires, "auth")
		}
		files = append(files, FileSpec{
			Path:     "src/routes/" + entity.Plural + ".js",
			Purpose:  fmt.Sprintf("REST routes for %s: %s.", entity.Name, strings.Join(routesByEntity[entity.Name], ", ")),
			Category: CategoryRoute,
			Exposes:  []string{"routes:" + entity.Name},
			Requires: routeRequires,
		})
	}
	return files
}

// pageFiles adds one page module per synthesized page.
func pageFiles(model *domain.Model) []FileSpec {
	var files []FileSpec
	for i := range model.Pages {
		page := &model.Pages[i]
		var requires []string
		if page.Entity != "" {
			requires = append(requires, "routes:"+page.Entity)
		}
		files = append(files, FileSpec{
			Path:     "src/pages/" + pageFileName(page) + ".jsx",
			Purpose:  fmt.Sprintf("UI page %q served at %s.", page.Name, page.Path),
			Category: CategoryPage,
			Exposes:  []string{"page:" + page.Path},
			Requires: requires,
		})
	}
	return files
}

func pageFileName(page *domain.Page) string {
	name := strings.ReplaceAll(page.Name, " ", "")
	if name == "" {
		name = "Index"
	}
	return name
}

// resolveDependencies matches each file's requires against other
// files' exposes, filling DependsOn. Requirements nothing exposes are
// returned as unresolved, flagged but not fatal.
func resolveDependencies(files []FileSpec) []string {
	producers := map[string]string{}
	for i := range files {
		for _, capability := range files[i].Exposes {
			if _, taken := producers[capability]; !taken {
				producers[capability] = files[i].Path
			}
		}
	}

	unresolvedSet := map[string]struct{}{}
	for i := range files {
		for _, capability := range files[i].Requires {
			producer, ok := producers[capability]
			if !ok {
				unresolvedSet[capability] = struct{}{}
				continue
			}
			if producer != files[i].Path {
				files[i].DependsOn = append(files[i].DependsOn, producer)
			}
		}
	}

	unresolved := make([]string, 0, len(unresolvedSet))
	for capability := range unresolvedSet {
		unresolved = append(unresolved, capability)
	}
	sort.Strings(unresolved)
	return unresolved
}

// topoSort orders files so producers precede consumers, tie-broken by
// declaration order. On a cycle the remainder keeps declaration order.
func topoSort(files []FileSpec) []FileSpec {
	indexByPath := map[string]int{}
	for i := range files {
		indexByPath[files[i].Path] = i
	}

	indegree := make([]int, len(files))
	dependents := make([][]int, len(files))
	for i := range files {
		for _, dep := range files[i].DependsOn {
			j, ok := indexByPath[dep]
			if !ok {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range files {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]FileSpec, 0, len(files))
	emitted := make([]bool, len(files))
	for len(ready) > 0 {
		sort.Ints(ready) // declaration-order tie break
		next := ready[0]
		ready = ready[1:]

		ordered = append(ordered, files[next])
		emitted[next] = true
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	for i := range files {
		if !emitted[i] {
			ordered = append(ordered, files[i])
		}
	}
	return ordered
}
