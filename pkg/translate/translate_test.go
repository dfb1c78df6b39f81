package translate

import (
	"reflect"
	"testing"

	"appforge/pkg/spec"
)

func TestResolveKindChain(t *testing.T) {
	tests := []struct {
		name string
		node spec.Node
		want Kind
	}{
		{
			name: "explicit kind wins",
			node: spec.Node{ID: "a", Kind: "postgres", Label: "frontend thing"},
			want: KindDatabase,
		},
		{
			name: "attribute type hint",
			node: spec.Node{ID: "a", Attributes: map[string]any{"type": "redis"}},
			want: KindCache,
		},
		{
			name: "id as short alias",
			node: spec.Node{ID: "pg"},
			want: KindDatabase,
		},
		{
			name: "label keyword inference",
			node: spec.Node{ID: "x1", Label: "Stripe billing integration"},
			want: KindPayments,
		},
		{
			name: "exhaustion falls back to generic service",
			node: spec.Node{ID: "x1", Label: "mystery box"},
			want: KindService,
		},
		{
			name: "non-string attribute ignored",
			node: spec.Node{ID: "x1", Attributes: map[string]any{"type": 42}, Label: "the API server"},
			want: KindBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveKind(&tt.node); got != tt.want {
				t.Errorf("ResolveKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateDeterministic(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "fe", Kind: "frontend", Label: "Web App"},
			{ID: "be", Kind: "backend", Label: "API"},
			{ID: "db", Kind: "postgres"},
			{ID: "auth", Label: "login service"},
		},
		Edges: []spec.Edge{
			{Source: "fe", Target: "be"},
			{Source: "be", Target: "db"},
			{Source: "be", Target: "auth"},
		},
		Intent: "a task tracker",
	}

	first := Translate(s)
	second := Translate(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two translations of identical input are not value-equal")
	}
}

func TestTranslateInteractionInference(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "be", Kind: "backend"},
			{ID: "db", Kind: "database"},
			{ID: "pay", Kind: "stripe"},
			{ID: "svc", Label: "mystery"},
		},
		Edges: []spec.Edge{
			{Source: "be", Target: "db"},
			{Source: "be", Target: "pay"},
			{Source: "be", Target: "svc"},
			{Source: "be", Target: "db", Label: "runs migrations against"},
		},
	}

	got := Translate(s)
	wantKinds := []string{
		"stores data in",
		"processes payments via",
		"calls",
		"runs migrations against",
	}
	if len(got.Interactions) != len(wantKinds) {
		t.Fatalf("expected %d interactions, got %d", len(wantKinds), len(got.Interactions))
	}
	for i, want := range wantKinds {
		if got.Interactions[i].Kind != want {
			t.Errorf("interaction %d: got kind %q, want %q", i, got.Interactions[i].Kind, want)
		}
	}
}

func TestTranslateUnionsAndSorting(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "be", Kind: "backend"},
			{ID: "db", Kind: "database"},
			{ID: "db2", Kind: "database", Label: "replica"},
			{ID: "cache", Kind: "redis"},
		},
	}

	got := Translate(s)

	wantTech := []string{"express", "node", "postgres", "redis"}
	if !reflect.DeepEqual(got.TechStack, wantTech) {
		t.Errorf("tech stack = %v, want %v", got.TechStack, wantTech)
	}

	wantEnv := []string{"DATABASE_URL", "PORT", "REDIS_URL"}
	if !reflect.DeepEqual(got.EnvVars, wantEnv) {
		t.Errorf("env vars = %v, want %v", got.EnvVars, wantEnv)
	}
}

func TestTranslateMalformedInput(t *testing.T) {
	got := Translate(nil)
	if len(got.Components) != 0 || len(got.Interactions) != 0 {
		t.Fatal("nil spec should translate to empty collections")
	}

	// Nodes without ids and dangling edges are dropped, not errors.
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{{Label: "no id"}},
		Edges: []spec.Edge{{Source: "", Target: "x"}, {Source: "a", Target: ""}},
	}
	got = Translate(s)
	if len(got.Components) != 0 {
		t.Errorf("expected node without id to be skipped, got %d components", len(got.Components))
	}
	if len(got.Interactions) != 0 {
		t.Errorf("expected malformed edges to be skipped, got %d interactions", len(got.Interactions))
	}
}

func TestTranslateHasKind(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{{ID: "db", Kind: "database"}},
	}
	got := Translate(s)
	if !got.HasKind(KindDatabase) {
		t.Error("expected HasKind(database) to be true")
	}
	if got.HasKind(KindPayments) {
		t.Error("expected HasKind(payments) to be false")
	}
}
