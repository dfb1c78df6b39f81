package critic

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/agent"
	"appforge/pkg/agent/llm"
	"appforge/pkg/agent/llmerrors"
	"appforge/pkg/spec"
	"appforge/pkg/translate"
)

func critiqueDeterministic(s *spec.ArchitectureSpec) *Result {
	c := New(nil, StrictnessLenient)
	return c.Critique(context.Background(), s, translate.Translate(s), true)
}

func TestNoNodesBlocks(t *testing.T) {
	result := critiqueDeterministic(&spec.ArchitectureSpec{})
	assert.True(t, result.Blocking)
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, SeverityCritical, result.Issues[0].Severity)
}

func TestNoEdgesBlocks(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{{ID: "fe", Kind: "frontend"}, {ID: "be", Kind: "backend"}},
	}
	result := critiqueDeterministic(s)
	assert.True(t, result.Blocking)
}

func TestFullyConnectedSpecDoesNotBlock(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "fe", Kind: "frontend"},
			{ID: "be", Kind: "backend"},
			{ID: "db", Kind: "database"},
			{ID: "auth", Kind: "auth"},
		},
		Edges: []spec.Edge{
			{Source: "fe", Target: "be"},
			{Source: "be", Target: "db"},
			{Source: "be", Target: "auth"},
			{Source: "fe", Target: "auth"},
		},
		Intent: "a task tracker where registered users manage their projects",
	}
	result := critiqueDeterministic(s)
	assert.False(t, result.Blocking)
}

func TestUnreachablePersistenceIsHighNotBlocking(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "be", Kind: "backend"},
			{ID: "db", Kind: "database"},
		},
		// The database exists but nothing connects to it.
		Edges:  []spec.Edge{{Source: "be", Target: "be"}},
		Intent: "publicly lists upcoming neighborhood events for everyone",
	}
	result := critiqueDeterministic(s)
	assert.False(t, result.Blocking, "non-structural high severity must not block in lenient mode")

	found := false
	for _, issue := range result.Issues {
		if issue.Category == "data" && issue.Severity == SeverityHigh {
			found = true
		}
	}
	assert.True(t, found, "expected a high-severity data issue")
}

func TestStrictModePromotesHighToBlocking(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}},
		Edges:  []spec.Edge{{Source: "be", Target: "be"}},
		Intent: "publicly lists upcoming neighborhood events for everyone",
	}
	c := New(nil, StrictnessStrict)
	result := c.Critique(context.Background(), s, translate.Translate(s), true)
	assert.True(t, result.Blocking)
}

func TestVagueIntentIsMedium(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}, {ID: "db", Kind: "database"}},
		Edges:  []spec.Edge{{Source: "be", Target: "db"}},
		Intent: "an app",
	}
	result := critiqueDeterministic(s)
	found := false
	for _, issue := range result.Issues {
		if issue.Category == "intent" {
			found = true
			assert.Equal(t, SeverityMedium, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestMissingAuthWithAccessControlIntent(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}, {ID: "db", Kind: "database"}},
		Edges:  []spec.Edge{{Source: "be", Target: "db"}},
		Intent: "users sign in to manage their private bookmarks collection",
	}
	result := critiqueDeterministic(s)
	assert.False(t, result.Blocking)

	found := false
	for _, issue := range result.Issues {
		if issue.Category == "security" && issue.Severity == SeverityHigh {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDeterministicRulesIdempotent(t *testing.T) {
	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}},
		Edges:  []spec.Edge{{Source: "be", Target: "be"}},
		Intent: "short",
	}
	first := critiqueDeterministic(s)
	second := critiqueDeterministic(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated deterministic critiques differ")
	}
}

func TestReasoningIssuesAreAdvisoryAndSorted(t *testing.T) {
	mock := agent.NewMockClient(agent.MockResponse{
		Response: llm.CompletionResponse{
			Content: `Here are my concerns:
[
  {"severity": "critical", "category": "scalability", "problem": "Single backend instance.", "recommendation": "Add a load balancer."},
  {"severity": "low", "category": "style", "problem": "Unlabeled edges.", "recommendation": "Label the interactions."}
]`,
		},
	})

	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}, {ID: "db", Kind: "database"}},
		Edges:  []spec.Edge{{Source: "be", Target: "db"}},
		Intent: "a long and thoroughly descriptive intent for an events app open to all",
	}
	c := New(mock, StrictnessLenient)
	result := c.Critique(context.Background(), s, translate.Translate(s), false)

	// Provider "critical" is capped at high and never blocks.
	assert.False(t, result.Blocking)
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, SeverityHigh, result.Issues[0].Severity)
	assert.Equal(t, "scalability", result.Issues[0].Category)

	// Severity descending.
	for i := 1; i < len(result.Issues); i++ {
		assert.GreaterOrEqual(t,
			severityRank[result.Issues[i-1].Severity],
			severityRank[result.Issues[i].Severity])
	}
}

func TestReasoningFailureDegradesGracefully(t *testing.T) {
	mock := agent.NewMockClient(agent.MockResponse{
		Err: llmerrors.NewError(llmerrors.ErrorTypeTransient, "provider down"),
	})

	s := &spec.ArchitectureSpec{
		Nodes:  []spec.Node{{ID: "be", Kind: "backend"}, {ID: "db", Kind: "database"}},
		Edges:  []spec.Edge{{Source: "be", Target: "db"}},
		Intent: "a long and thoroughly descriptive intent for an events app open to all",
	}
	c := New(mock, StrictnessLenient)
	result := c.Critique(context.Background(), s, translate.Translate(s), false)

	assert.False(t, result.Blocking)
	assert.Equal(t, 1, mock.CallCount())
}
