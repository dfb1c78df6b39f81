// Package translate converts a raw architecture spec into a canonical
// component/interaction model. Translation is a pure function: two
// translations of identical input are value-equal, and malformed input
// degrades to empty collections rather than errors.
package translate

import (
	"sort"
	"strings"

	"appforge/pkg/spec"
)

// Kind is a canonical component kind produced by the resolver chain.
type Kind string

const (
	KindFrontend Kind = "frontend"
	KindBackend  Kind = "backend"
	KindDatabase Kind = "database"
	KindCache    Kind = "cache"
	KindAuth     Kind = "auth"
	KindPayments Kind = "payments"
	KindQueue    Kind = "queue"
	KindStorage  Kind = "storage"
	KindSearch   Kind = "search"
	KindEmail    Kind = "email"
	KindExternal Kind = "external_api"

	// KindService is the generic fallback when no resolver matches.
	KindService Kind = "service"
)

// Component is a node with its kind resolved.
type Component struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Name     string   `json:"name"`
	Features []string `json:"features,omitempty"`
}

// Interaction is an edge with its interaction kind resolved. When the
// edge carries no label, the kind is inferred from the target's kind.
type Interaction struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Kind     string `json:"kind"`
}

// TranslatedArchitecture is the canonical form of an ArchitectureSpec.
type TranslatedArchitecture struct {
	Components   []Component   `json:"components"`
	Interactions []Interaction `json:"interactions"`
	TechStack    []string      `json:"tech_stack"`
	EnvVars      []string      `json:"env_vars"`
}

// Component returns the component with the given id, or nil.
func (t *TranslatedArchitecture) Component(id string) *Component {
	for i := range t.Components {
		if t.Components[i].ID == id {
			return &t.Components[i]
		}
	}
	return nil
}

// HasKind reports whether any component resolved to the given kind.
func (t *TranslatedArchitecture) HasKind(kind Kind) bool {
	for i := range t.Components {
		if t.Components[i].Kind == kind {
			return true
		}
	}
	return false
}

// kindAliases maps short user-facing names to canonical kinds. This is
// the single alias table; resolvers consult it rather than matching
// strings at call sites.
//
//nolint:gochecknoglobals // Fixed lookup table.
var kindAliases = map[string]Kind{
	"frontend": KindFrontend, "front": KindFrontend, "ui": KindFrontend,
	"web": KindFrontend, "client": KindFrontend, "spa": KindFrontend,
	"backend": KindBackend, "api": KindBackend, "server": KindBackend,
	"service": KindBackend, "app": KindBackend,
	"database": KindDatabase, "db": KindDatabase, "pg": KindDatabase,
	"postgres": KindDatabase, "postgresql": KindDatabase, "psql": KindDatabase,
	"mysql": KindDatabase, "sqlite": KindDatabase, "mongo": KindDatabase,
	"mongodb": KindDatabase,
	"cache": KindCache, "redis": KindCache, "memcached": KindCache,
	"auth": KindAuth, "authentication": KindAuth, "login": KindAuth,
	"oauth": KindAuth, "sso": KindAuth,
	"payments": KindPayments, "payment": KindPayments, "stripe": KindPayments,
	"billing": KindPayments, "checkout": KindPayments,
	"queue": KindQueue, "worker": KindQueue, "jobs": KindQueue,
	"rabbitmq": KindQueue, "kafka": KindQueue,
	"storage": KindStorage, "s3": KindStorage, "files": KindStorage,
	"bucket": KindStorage, "blob": KindStorage,
	"search": KindSearch, "elasticsearch": KindSearch, "elastic": KindSearch,
	"email": KindEmail, "mail": KindEmail, "smtp": KindEmail,
	"sendgrid": KindEmail,
	"external": KindExternal, "webhook": KindExternal, "integration": KindExternal,
}

// labelKeywords is the last-resort inference table, matched as
// substrings against a node's free-text label. Order matters: earlier
// entries win for labels matching more than one keyword.
//
//nolint:gochecknoglobals // Fixed lookup table.
var labelKeywords = []struct {
	keyword string
	kind    Kind
}{
	{"database", KindDatabase},
	{"postgres", KindDatabase},
	{"data store", KindDatabase},
	{"cache", KindCache},
	{"redis", KindCache},
	{"auth", KindAuth},
	{"login", KindAuth},
	{"sign in", KindAuth},
	{"payment", KindPayments},
	{"stripe", KindPayments},
	{"billing", KindPayments},
	{"queue", KindQueue},
	{"worker", KindQueue},
	{"background", KindQueue},
	{"storage", KindStorage},
	{"upload", KindStorage},
	{"search", KindSearch},
	{"email", KindEmail},
	{"mail", KindEmail},
	{"notification", KindEmail},
	{"frontend", KindFrontend},
	{"front end", KindFrontend},
	{"ui", KindFrontend},
	{"web app", KindFrontend},
	{"page", KindFrontend},
	{"backend", KindBackend},
	{"back end", KindBackend},
	{"api", KindBackend},
	{"server", KindBackend},
	{"external", KindExternal},
	{"third party", KindExternal},
	{"webhook", KindExternal},
}

// resolver attempts to resolve a node's canonical kind. The chain is
// evaluated in order; the first resolver to return ok wins.
type resolver func(n *spec.Node) (Kind, bool)

//nolint:gochecknoglobals // Fixed resolver chain, evaluated in order.
var resolverChain = []resolver{
	resolveExplicitKind,
	resolveAttributeKind,
	resolveAliasLookup,
	resolveLabelKeywords,
}

func resolveExplicitKind(n *spec.Node) (Kind, bool) {
	return lookupAlias(n.Kind)
}

// resolveAttributeKind checks the free-form attribute map for fields
// that conventionally carry a type hint.
func resolveAttributeKind(n *spec.Node) (Kind, bool) {
	for _, field := range []string{"kind", "type", "component_type", "service_type"} {
		raw, ok := n.Attributes[field]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		if kind, ok := lookupAlias(value); ok {
			return kind, true
		}
	}
	return "", false
}

// resolveAliasLookup treats the node's id as a short alias ("pg",
// "cache", ...), a common habit in quickly sketched graphs.
func resolveAliasLookup(n *spec.Node) (Kind, bool) {
	return lookupAlias(n.ID)
}

func resolveLabelKeywords(n *spec.Node) (Kind, bool) {
	label := strings.ToLower(n.Label)
	if label == "" {
		return "", false
	}
	for _, entry := range labelKeywords {
		if strings.Contains(label, entry.keyword) {
			return entry.kind, true
		}
	}
	return "", false
}

func lookupAlias(value string) (Kind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	kind, ok := kindAliases[normalized]
	return kind, ok
}

// ResolveKind runs the resolver chain for a single node. Exhaustion
// yields KindService, never an error.
func ResolveKind(n *spec.Node) Kind {
	for _, resolve := range resolverChain {
		if kind, ok := resolve(n); ok {
			return kind
		}
	}
	return KindService
}

// kindSemantics describes what a resolved kind contributes to the
// translated architecture: feature flags, tech stack entries, and
// required environment variables.
type kindSemantics struct {
	features []string
	tech     []string
	envVars  []string
}

//nolint:gochecknoglobals // Fixed semantics table keyed by resolved kind.
var semanticsByKind = map[Kind]kindSemantics{
	KindFrontend: {
		features: []string{"routing", "forms"},
		tech:     []string{"react", "vite", "tailwindcss"},
	},
	KindBackend: {
		features: []string{"rest_api", "validation"},
		tech:     []string{"node", "express"},
		envVars:  []string{"PORT"},
	},
	KindDatabase: {
		features: []string{"persistence", "migrations"},
		tech:     []string{"postgres"},
		envVars:  []string{"DATABASE_URL"},
	},
	KindCache: {
		features: []string{"caching"},
		tech:     []string{"redis"},
		envVars:  []string{"REDIS_URL"},
	},
	KindAuth: {
		features: []string{"sessions", "access_control"},
		tech:     []string{"jwt"},
		envVars:  []string{"JWT_SECRET"},
	},
	KindPayments: {
		features: []string{"checkout"},
		tech:     []string{"stripe"},
		envVars:  []string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET"},
	},
	KindQueue: {
		features: []string{"background_jobs"},
		tech:     []string{"bullmq"},
		envVars:  []string{"REDIS_URL"},
	},
	KindStorage: {
		features: []string{"file_uploads"},
		tech:     []string{"s3"},
		envVars:  []string{"S3_BUCKET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"},
	},
	KindSearch: {
		features: []string{"full_text_search"},
		tech:     []string{"elasticsearch"},
		envVars:  []string{"ELASTICSEARCH_URL"},
	},
	KindEmail: {
		features: []string{"transactional_email"},
		tech:     []string{"sendgrid"},
		envVars:  []string{"SENDGRID_API_KEY"},
	},
	KindExternal: {
		features: []string{"outbound_integration"},
	},
	KindService: {
		features: []string{"rest_api"},
		tech:     []string{"node"},
	},
}

// interactionByTargetKind infers an interaction kind from the kind of
// the component an edge points into.
//
//nolint:gochecknoglobals // Fixed lookup table.
var interactionByTargetKind = map[Kind]string{
	KindDatabase: "stores data in",
	KindCache:    "caches via",
	KindAuth:     "authenticates with",
	KindPayments: "processes payments via",
	KindQueue:    "enqueues work on",
	KindStorage:  "stores files in",
	KindSearch:   "searches via",
	KindEmail:    "sends email via",
	KindExternal: "integrates with",
}

const defaultInteractionKind = "calls"

// Translate converts an ArchitectureSpec into its canonical form. It
// is total: missing or malformed graph fields yield empty collections.
func Translate(s *spec.ArchitectureSpec) *TranslatedArchitecture {
	out := &TranslatedArchitecture{
		Components:   []Component{},
		Interactions: []Interaction{},
		TechStack:    []string{},
		EnvVars:      []string{},
	}
	if s == nil {
		return out
	}

	techSet := map[string]struct{}{}
	envSet := map[string]struct{}{}
	kindByID := map[string]Kind{}

	for i := range s.Nodes {
		node := &s.Nodes[i]
		if node.ID == "" {
			continue
		}
		kind := ResolveKind(node)
		kindByID[node.ID] = kind

		name := node.Label
		if name == "" {
			name = node.ID
		}

		sem := semanticsByKind[kind]
		out.Components = append(out.Components, Component{
			ID:       node.ID,
			Kind:     kind,
			Name:     name,
			Features: append([]string(nil), sem.features...),
		})
		for _, tech := range sem.tech {
			techSet[tech] = struct{}{}
		}
		for _, env := range sem.envVars {
			envSet[env] = struct{}{}
		}
	}

	for i := range s.Edges {
		edge := &s.Edges[i]
		if edge.Source == "" || edge.Target == "" {
			continue
		}
		kind := strings.TrimSpace(edge.Label)
		if kind == "" {
			kind = interactionByTargetKind[kindByID[edge.Target]]
			if kind == "" {
				kind = defaultInteractionKind
			}
		}
		out.Interactions = append(out.Interactions, Interaction{
			SourceID: edge.Source,
			TargetID: edge.Target,
			Kind:     kind,
		})
	}

	out.TechStack = sortedSet(techSet)
	out.EnvVars = sortedSet(envSet)
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
