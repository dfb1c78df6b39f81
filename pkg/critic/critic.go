// Package critic evaluates an architecture spec before any generation
// is attempted. Deterministic structural rules always run and are the
// only source of blocking decisions; an optional reasoning call may
// append advisory issues but can never block or fail the critique.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"appforge/pkg/agent/llm"
	"appforge/pkg/logx"
	"appforge/pkg/spec"
	"appforge/pkg/translate"
)

// Severity classifies how serious an issue is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

//nolint:gochecknoglobals // Fixed ordering table.
var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityHigh:     2,
	SeverityMedium:   1,
	SeverityLow:      0,
}

// Issue is a single finding about the architecture.
type Issue struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Problem        string   `json:"problem"`
	Recommendation string   `json:"recommendation"`
}

// Result is the critique outcome gating generation.
type Result struct {
	Issues   []Issue `json:"issues"`
	Blocking bool    `json:"blocking"`
	Summary  string  `json:"summary"`
}

// Strictness controls how non-structural high-severity issues are
// treated. Lenient (the default) downgrades them to warnings so quick
// iterations are not blocked; Strict lets them block generation.
type Strictness int

const (
	StrictnessLenient Strictness = iota
	StrictnessStrict
)

// Critic runs structural rules and the optional reasoning step.
type Critic struct {
	client     llm.Client
	strictness Strictness
	logger     *logx.Logger
}

// New creates a critic. client may be nil, in which case the reasoning
// step is always skipped.
func New(client llm.Client, strictness Strictness) *Critic {
	return &Critic{
		client:     client,
		strictness: strictness,
		logger:     logx.NewLogger("critic"),
	}
}

//nolint:gochecknoglobals // Fixed kind classification for reachability.
var (
	computeKinds = map[translate.Kind]bool{
		translate.KindBackend: true,
		translate.KindService: true,
	}
	persistenceKinds = map[translate.Kind]bool{
		translate.KindDatabase: true,
		translate.KindStorage:  true,
	}
	accessControlHints = []string{
		"user", "account", "login", "admin", "private",
		"member", "profile", "permission", "role",
	}
)

// Critique evaluates the architecture. skipReasoning suppresses the provider
// call, leaving deterministic rules only.
func (c *Critic) Critique(ctx context.Context, s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture, skipReasoning bool) *Result {
	result := &Result{Issues: []Issue{}}

	c.runStructuralRules(s, translated, result)

	if !skipReasoning && c.client != nil {
		c.runReasoningStep(ctx, s, translated, result)
	}

	sortIssues(result.Issues)
	result.Summary = summarize(result)
	return result
}

// runStructuralRules appends the deterministic findings. Only these
// rules may set Blocking.
func (c *Critic) runStructuralRules(s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture, result *Result) {
	if len(s.Nodes) == 0 {
		result.Blocking = true
		result.Issues = append(result.Issues, Issue{
			Severity:       SeverityCritical,
			Category:       "structure",
			Problem:        "The architecture has no components.",
			Recommendation: "Add at least a frontend or backend component to the graph.",
		})
		return
	}

	if len(s.Edges) == 0 {
		result.Blocking = true
		result.Issues = append(result.Issues, Issue{
			Severity:       SeverityCritical,
			Category:       "structure",
			Problem:        "The architecture has components but no connections between them.",
			Recommendation: "Connect the components with edges describing how they interact.",
		})
	}

	if hasUnreachablePersistence(translated) {
		issue := Issue{
			Severity:       SeverityHigh,
			Category:       "data",
			Problem:        "No persistence component is reachable from the compute components; generated data will not survive restarts.",
			Recommendation: "Connect the backend to a database or storage component.",
		}
		result.Issues = append(result.Issues, issue)
		if c.strictness == StrictnessStrict {
			result.Blocking = true
		}
	}

	if intent := strings.TrimSpace(s.Intent); len(intent) < 20 {
		result.Issues = append(result.Issues, Issue{
			Severity:       SeverityMedium,
			Category:       "intent",
			Problem:        "The intent text is empty or too vague to derive application semantics from.",
			Recommendation: "Describe what the application should do, its main entities, and who uses it.",
		})
	}

	if impliesAccessControl(s.Intent) && !translated.HasKind(translate.KindAuth) {
		issue := Issue{
			Severity:       SeverityHigh,
			Category:       "security",
			Problem:        "The intent implies user accounts or restricted access, but there is no auth component.",
			Recommendation: "Add an authentication component and connect it to the backend.",
		}
		result.Issues = append(result.Issues, issue)
		if c.strictness == StrictnessStrict {
			result.Blocking = true
		}
	}
}

// hasUnreachablePersistence reports whether persistence components
// exist in the graph but none can be reached from any compute
// component, or compute components exist with no persistence at all.
func hasUnreachablePersistence(t *translate.TranslatedArchitecture) bool {
	var computeIDs []string
	hasCompute := false
	hasPersistence := false
	for i := range t.Components {
		comp := &t.Components[i]
		if computeKinds[comp.Kind] {
			hasCompute = true
			computeIDs = append(computeIDs, comp.ID)
		}
		if persistenceKinds[comp.Kind] {
			hasPersistence = true
		}
	}
	if !hasCompute {
		return false
	}
	if !hasPersistence {
		return true
	}

	adjacent := map[string][]string{}
	for i := range t.Interactions {
		in := &t.Interactions[i]
		adjacent[in.SourceID] = append(adjacent[in.SourceID], in.TargetID)
	}

	visited := map[string]bool{}
	queue := append([]string(nil), computeIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		if comp := t.Component(id); comp != nil && persistenceKinds[comp.Kind] {
			return false
		}
		queue = append(queue, adjacent[id]...)
	}
	return true
}

func impliesAccessControl(intent string) bool {
	lowered := strings.ToLower(intent)
	for _, hint := range accessControlHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// reasoningIssue is the JSON shape requested from the provider.
type reasoningIssue struct {
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Problem        string `json:"problem"`
	Recommendation string `json:"recommendation"`
}

// runReasoningStep asks the provider for additional advisory issues.
// Any failure degrades gracefully to the deterministic-only result.
func (c *Critic) runReasoningStep(ctx context.Context, s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture, result *Result) {
	prompt := buildReasoningPrompt(s, translated)
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage("You are a software architecture reviewer. Respond only with a JSON array of issues, each with severity (low|medium|high), category, problem, and recommendation. Respond with [] if the architecture looks sound."),
		llm.NewUserMessage(prompt),
	})

	resp, err := c.client.Complete(ctx, req)
	if err != nil {
		c.logger.Warn("reasoning step failed, using deterministic result only: %v", err)
		return
	}

	issues, err := parseReasoningIssues(resp.Content)
	if err != nil {
		c.logger.Warn("could not parse reasoning issues, ignoring: %v", err)
		return
	}

	for i := range issues {
		severity := Severity(strings.ToLower(issues[i].Severity))
		if _, known := severityRank[severity]; !known {
			severity = SeverityLow
		}
		// Reasoning issues are always advisory: critical findings from
		// the provider are capped at high and never block.
		if severity == SeverityCritical {
			severity = SeverityHigh
		}
		result.Issues = append(result.Issues, Issue{
			Severity:       severity,
			Category:       issues[i].Category,
			Problem:        issues[i].Problem,
			Recommendation: issues[i].Recommendation,
		})
	}
}

func buildReasoningPrompt(s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n\nComponents:\n", s.Intent)
	for i := range translated.Components {
		comp := &translated.Components[i]
		fmt.Fprintf(&b, "- %s (%s)\n", comp.Name, comp.Kind)
	}
	b.WriteString("\nInteractions:\n")
	for i := range translated.Interactions {
		in := &translated.Interactions[i]
		fmt.Fprintf(&b, "- %s %s %s\n", in.SourceID, in.Kind, in.TargetID)
	}
	b.WriteString("\nList anti-patterns or scalability concerns in this architecture.")
	return b.String()
}

// parseReasoningIssues tolerates prose around the JSON array.
func parseReasoningIssues(content string) ([]reasoningIssue, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var issues []reasoningIssue
	if err := json.Unmarshal([]byte(content[start:end+1]), &issues); err != nil {
		return nil, fmt.Errorf("failed to parse issues: %w", err)
	}
	return issues, nil
}

// sortIssues orders by severity descending, preserving discovery order
// within a severity (deterministic rules precede reasoning issues).
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return severityRank[issues[i].Severity] > severityRank[issues[j].Severity]
	})
}

func summarize(result *Result) string {
	if len(result.Issues) == 0 {
		return "Architecture looks sound; no issues found."
	}
	counts := map[Severity]int{}
	for i := range result.Issues {
		counts[result.Issues[i].Severity]++
	}
	var parts []string
	for _, severity := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if n := counts[severity]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, severity))
		}
	}
	verdict := "generation can proceed"
	if result.Blocking {
		verdict = "generation is blocked"
	}
	return fmt.Sprintf("Found %s issue(s); %s.", strings.Join(parts, ", "), verdict)
}
