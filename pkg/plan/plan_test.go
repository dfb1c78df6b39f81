package plan

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/domain"
	"appforge/pkg/translate"
)

func taskModel() *domain.Model {
	return &domain.Model{
		Archetype: domain.ArchetypeSaaS,
		Entities: []domain.Entity{
			{
				Name:   "task",
				Plural: "tasks",
				Fields: []domain.Field{
					{Name: "id", Type: "string"},
					{Name: "name", Type: "string"},
					{Name: "created_at", Type: "timestamp"},
				},
			},
		},
		Pages: []domain.Page{
			{Name: "Home", Path: "/"},
			{Name: "Login", Path: "/login"},
			{Name: "Tasks", Path: "/tasks", Entity: "task"},
		},
		Routes: []domain.Route{
			{Method: "GET", Path: "/api/tasks", Entity: "task"},
			{Method: "POST", Path: "/api/tasks", Entity: "task"},
		},
		AuthRequired: true,
		TechStack:    []string{"express", "node", "postgres"},
	}
}

func taskArchitecture() *translate.TranslatedArchitecture {
	return &translate.TranslatedArchitecture{
		Components: []translate.Component{
			{ID: "be", Kind: translate.KindBackend},
			{ID: "db", Kind: translate.KindDatabase},
			{ID: "auth", Kind: translate.KindAuth},
		},
		TechStack: []string{"express", "node", "postgres"},
		EnvVars:   []string{"DATABASE_URL", "SESSION_SECRET"},
	}
}

func TestBuildIncludesScaffoldSet(t *testing.T) {
	p, err := Build("taskapp", taskModel(), taskArchitecture())
	require.NoError(t, err)

	paths := p.Paths()
	assert.Contains(t, paths, "package.json")
	assert.Contains(t, paths, "src/index.js")
	assert.Contains(t, paths, "README.md")
}

func TestBuildEmptyModelFails(t *testing.T) {
	_, err := Build("taskapp", &domain.Model{}, taskArchitecture())
	require.Error(t, err)
}

func TestBuildEntityFilesAndCapabilities(t *testing.T) {
	p, err := Build("taskapp", taskModel(), taskArchitecture())
	require.NoError(t, err)

	var modelFile, routeFile *FileSpec
	for i := range p.Files {
		switch p.Files[i].Path {
		case "src/models/task.js":
			modelFile = &p.Files[i]
		case "src/routes/tasks.js":
			routeFile = &p.Files[i]
		}
	}
	require.NotNil(t, modelFile)
	require.NotNil(t, routeFile)

	assert.Equal(t, []string{"model:task"}, modelFile.Exposes)
	assert.Equal(t, []string{"db_client"}, modelFile.Requires)
	assert.Contains(t, routeFile.Requires, "model:task")
	assert.Contains(t, routeFile.Requires, "auth")
	assert.Contains(t, routeFile.Purpose, "GET /api/tasks")
}

func TestProducersPrecedeConsumers(t *testing.T) {
	p, err := Build("taskapp", taskModel(), taskArchitecture())
	require.NoError(t, err)

	position := map[string]int{}
	for i := range p.Files {
		position[p.Files[i].Path] = i
	}

	assert.Less(t, position["src/db.js"], position["src/models/task.js"])
	assert.Less(t, position["src/models/task.js"], position["src/routes/tasks.js"])
	assert.Less(t, position["src/routes/tasks.js"], position["src/index.js"])
	assert.Less(t, position["src/auth.js"], position["src/routes/tasks.js"])
}

func TestUnresolvedRequiresFlaggedNotFatal(t *testing.T) {
	model := taskModel()
	model.AuthRequired = true

	// No database component: model files still require db_client.
	arch := &translate.TranslatedArchitecture{
		Components: []translate.Component{
			{ID: "be", Kind: translate.KindBackend},
		},
	}

	p, err := Build("taskapp", model, arch)
	require.NoError(t, err)
	assert.Contains(t, p.Unresolved, "db_client")
	assert.NotContains(t, p.Paths(), "src/db.js")
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build("taskapp", taskModel(), taskArchitecture())
	require.NoError(t, err)
	second, err := Build("taskapp", taskModel(), taskArchitecture())
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestRenderBriefListsFilesInOrder(t *testing.T) {
	model := taskModel()
	p, err := Build("taskapp", model, taskArchitecture())
	require.NoError(t, err)

	brief := RenderBrief(p, model, "track team tasks")
	assert.Contains(t, brief, "Application: taskapp")
	assert.Contains(t, brief, "Intent: track team tasks")
	assert.Contains(t, brief, "task: id (string), name (string), created_at (timestamp)")

	idxManifest := strings.Index(brief, "package.json")
	idxEntry := strings.Index(brief, "src/index.js")
	require.NotEqual(t, -1, idxManifest)
	require.NotEqual(t, -1, idxEntry)
	assert.Less(t, idxManifest, idxEntry)
}

func TestRenderBriefDeterministic(t *testing.T) {
	model := taskModel()
	p, err := Build("taskapp", model, taskArchitecture())
	require.NoError(t, err)
	assert.Equal(t, RenderBrief(p, model, "x"), RenderBrief(p, model, "x"))
}
