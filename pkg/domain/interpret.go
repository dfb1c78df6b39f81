package domain

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

// Interpreter derives a domain model from a translated architecture.
// All structural conclusions (archetype, entities, routes, auth flag)
// are deterministic; an optional enrichment call may add entity
// descriptions but can never change structure.
type Interpreter struct {
	client llm.Client
	logger *logx.Logger
}

// New creates an interpreter. client may be nil to disable enrichment.
func New(client llm.Client) *Interpreter {
	return &Interpreter{
		client: client,
		logger: logx.NewLogger("interpreter"),
	}
}

//nolint:gochecknoglobals // Fixed keyword tables.
var (
	ecommerceHints = []string{"shop", "store", "sell", "product", "cart", "order", "checkout"}
	dashboardHints = []string{"admin", "dashboard", "manage", "internal", "back office", "backoffice"}
	contentHints   = []string{"blog", "article", "cms", "content", "post", "publish"}
	restrictedHint = []string{"user", "account", "login", "sign in", "private", "member", "admin", "role"}

	// Generic words that noun extraction must never turn into entities.
	nounStopwords = map[string]bool{
		"app": true, "apps": true, "application": true, "applications": true,
		"user": true, "users": true, "data": true, "page": true, "pages": true,
		"api": true, "apis": true, "website": true, "site": true, "sites": true,
		"system": true, "systems": true, "thing": true, "things": true,
		"service": true, "services": true, "feature": true, "features": true,
		"way": true, "ways": true, "list": true, "lists": true,
		"detail": true, "details": true, "item": true, "items": true,
	}

	// Verbs whose direct object is very likely an entity.
	entityVerbs = []string{"manage", "track", "create", "organize", "browse", "share", "store", "book", "review"}
)

// Interpret derives the domain model. Deterministic for identical
// inputs; provider errors during enrichment fall back to the purely
// deterministic result.
func (i *Interpreter) Interpret(ctx context.Context, s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture) *Model {
	model := &Model{
		Archetype:    chooseArchetype(s, translated),
		Entities:     extractEntities(s, translated),
		AuthRequired: requiresAuth(s, translated),
		TechStack:    append([]string(nil), translated.TechStack...),
	}

	model.Pages = synthesizePages(model)
	model.Routes = synthesizeRoutes(model)

	if i.client != nil {
		i.enrich(ctx, s, model)
	}
	return model
}

// chooseArchetype walks a fixed decision table; the first match wins.
func chooseArchetype(s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture) Archetype {
	intent := strings.ToLower(s.Intent)

	switch {
	case translated.HasKind(translate.KindPayments) || containsAny(intent, ecommerceHints):
		return ArchetypeEcommerce
	case containsAny(intent, dashboardHints) && translated.HasKind(translate.KindAuth):
		return ArchetypeAdminDashboard
	case containsAny(intent, contentHints):
		return ArchetypeContentSite
	case !translated.HasKind(translate.KindFrontend):
		return ArchetypeAPIService
	case translated.HasKind(translate.KindAuth) && translated.HasKind(translate.KindDatabase):
		return ArchetypeSaaS
	default:
		return ArchetypeWebApp
	}
}

func containsAny(text string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

// extractEntities pulls candidate nouns from the intent text and
// cross-checks them against component labels. Candidates are collected
// in discovery order, deduplicated by singular form.
func extractEntities(s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture) []Entity {
	seen := map[string]bool{}
	var names []string
	add := func(candidate string) {
		singular := singularize(strings.ToLower(strings.Trim(candidate, ".,;:!?\"'")))
		if len(singular) < 3 || nounStopwords[singular] || nounStopwords[singular+"s"] {
			return
		}
		if !isWord(singular) {
			return
		}
		if !seen[singular] {
			seen[singular] = true
			names = append(names, singular)
		}
	}

	words := strings.Fields(strings.ToLower(s.Intent))
	for idx, word := range words {
		cleaned := strings.Trim(word, ".,;:!?\"'")

		// Direct object of an entity verb ("manage recipes", "track expenses").
		for _, verb := range entityVerbs {
			if cleaned == verb || cleaned == verb+"s" {
				for next := idx + 1; next < len(words) && next <= idx+2; next++ {
					candidate := strings.Trim(words[next], ".,;:!?\"'")
					if candidate == "their" || candidate == "the" || candidate == "a" || candidate == "an" || candidate == "my" {
						continue
					}
					add(candidate)
					break
				}
			}
		}

		// Plural nouns are likely collections of entities.
		if strings.HasSuffix(cleaned, "s") && !strings.HasSuffix(cleaned, "ss") {
			add(cleaned)
		}
	}

	// Component labels that are not infrastructure name entities too
	// ("Recipes DB" suggests a Recipe entity).
	for i := range translated.Components {
		comp := &translated.Components[i]
		for _, word := range strings.Fields(strings.ToLower(comp.Name)) {
			if strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
				add(word)
			}
		}
	}

	entities := make([]Entity, 0, len(names))
	for _, name := range names {
		entities = append(entities, Entity{
			Name:   name,
			Plural: pluralize(name),
			Fields: defaultFields(name),
		})
	}
	return entities
}

// isWord filters out tokens with digits or symbols left by cleaning.
func isWord(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}

func singularize(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ses") || strings.HasSuffix(word, "xes") || strings.HasSuffix(word, "ches") || strings.HasSuffix(word, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		return word[:len(word)-1]
	default:
		return word
	}
}

func pluralize(word string) string {
	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !strings.ContainsRune("aeiou", rune(word[len(word)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func defaultFields(name string) []Field {
	fields := []Field{
		{Name: "id", Type: "string"},
		{Name: "name", Type: "string"},
		{Name: "created_at", Type: "timestamp"},
	}
	// A few well-known entities get obvious extra fields.
	switch name {
	case "product":
		fields = append(fields, Field{Name: "price", Type: "number"}, Field{Name: "description", Type: "string"})
	case "order":
		fields = append(fields, Field{Name: "total", Type: "number"}, Field{Name: "status", Type: "string"})
	case "post", "article":
		fields = append(fields, Field{Name: "body", Type: "string"}, Field{Name: "published_at", Type: "timestamp"})
	case "event":
		fields = append(fields, Field{Name: "starts_at", Type: "timestamp"}, Field{Name: "location", Type: "string"})
	case "task", "todo":
		fields = append(fields, Field{Name: "done", Type: "boolean"}, Field{Name: "due_at", Type: "timestamp"})
	}
	return fields
}

func requiresAuth(s *spec.ArchitectureSpec, translated *translate.TranslatedArchitecture) bool {
	if translated.HasKind(translate.KindAuth) {
		return true
	}
	return containsAny(strings.ToLower(s.Intent), restrictedHint)
}

// synthesizePages builds archetype-specific pages per entity.
func synthesizePages(model *Model) []Page {
	pages := []Page{{Name: "Home", Path: "/"}}
	if model.AuthRequired {
		pages = append(pages, Page{Name: "Login", Path: "/login"})
	}
	if model.Archetype == ArchetypeAdminDashboard {
		pages = append(pages, Page{Name: "Dashboard", Path: "/dashboard"})
	}
	if model.Archetype == ArchetypeAPIService {
		// No user-facing pages beyond a landing page for API services.
		return pages
	}
	for i := range model.Entities {
		entity := &model.Entities[i]
		pages = append(pages,
			Page{Name: titleCase(entity.Plural), Path: "/" + entity.Plural, Entity: entity.Name},
			Page{Name: titleCase(entity.Name) + " Detail", Path: "/" + entity.Plural + "/:id", Entity: entity.Name},
		)
	}
	if model.Archetype == ArchetypeEcommerce {
		pages = append(pages, Page{Name: "Cart", Path: "/cart"}, Page{Name: "Checkout", Path: "/checkout"})
	}
	return pages
}

// synthesizeRoutes builds CRUD routes per entity.
func synthesizeRoutes(model *Model) []Route {
	var routes []Route
	for i := range model.Entities {
		entity := &model.Entities[i]
		base := "/api/" + entity.Plural
		routes = append(routes,
			Route{Method: "GET", Path: base, Entity: entity.Name},
			Route{Method: "POST", Path: base, Entity: entity.Name},
			Route{Method: "GET", Path: base + "/:id", Entity: entity.Name},
			Route{Method: "PUT", Path: base + "/:id", Entity: entity.Name},
			Route{Method: "DELETE", Path: base + "/:id", Entity: entity.Name},
		)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Entity != routes[j].Entity {
			return routes[i].Entity < routes[j].Entity
		}
		return false
	})
	return routes
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// enrichment is the JSON shape requested from the provider.
type enrichment struct {
	Entity      string `json:"entity"`
	Description string `json:"description"`
}

// enrich asks the provider for one-line entity descriptions. Structure
// is never altered: only Description fields may change, and any error
// leaves the deterministic result untouched.
func (i *Interpreter) enrich(ctx context.Context, s *spec.ArchitectureSpec, model *Model) {
	if len(model.Entities) == 0 {
		return
	}

	var names []string
	for idx := range model.Entities {
		names = append(names, model.Entities[idx].Name)
	}
	prompt := fmt.Sprintf(
		"Application intent: %s\n\nEntities: %s\n\nRespond with a JSON array of {entity, description} giving a one-sentence description of each entity's role in this application.",
		s.Intent, strings.Join(names, ", "))

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage(prompt)})
	resp, err := i.client.Complete(ctx, req)
	if err != nil {
		i.logger.Warn("entity enrichment failed, keeping deterministic model: %v", err)
		return
	}

	start := strings.Index(resp.Content, "[")
	end := strings.LastIndex(resp.Content, "]")
	if start < 0 || end <= start {
		return
	}
	var enrichments []enrichment
	if err := json.Unmarshal([]byte(resp.Content[start:end+1]), &enrichments); err != nil {
		i.logger.Warn("could not parse enrichment response, ignoring: %v", err)
		return
	}

	byName := map[string]string{}
	for idx := range enrichments {
		byName[strings.ToLower(enrichments[idx].Entity)] = enrichments[idx].Description
	}
	for idx := range model.Entities {
		if desc, ok := byName[model.Entities[idx].Name]; ok {
			model.Entities[idx].Description = desc
		}
	}
}
