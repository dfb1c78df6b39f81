// Package domain derives application semantics - archetype, entities,
// pages, and API routes - from a translated architecture and the
// user's free-text intent.
package domain

// Archetype classifies the overall shape of the application.
type Archetype string

const (
	ArchetypeWebApp         Archetype = "web_app"
	ArchetypeAdminDashboard Archetype = "admin_dashboard"
	ArchetypeEcommerce      Archetype = "ecommerce"
	ArchetypeContentSite    Archetype = "content_site"
	ArchetypeAPIService     Archetype = "api_service"
	ArchetypeSaaS           Archetype = "saas_app"
)

// Field is a single attribute of an entity.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Entity is a domain object the application manages.
type Entity struct {
	Name        string  `json:"name"`
	Plural      string  `json:"plural"`
	Fields      []Field `json:"fields"`
	Description string  `json:"description,omitempty"`
}

// Page is a user-facing view synthesized for an entity or archetype.
type Page struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Entity string `json:"entity,omitempty"`
}

// Route is an API endpoint synthesized for an entity.
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Entity string `json:"entity"`
}

// Model is the derived application semantics consumed by the planner.
type Model struct {
	Archetype    Archetype `json:"archetype"`
	Entities     []Entity  `json:"entities"`
	Pages        []Page    `json:"pages"`
	Routes       []Route   `json:"routes"`
	AuthRequired bool      `json:"auth_required"`
	TechStack    []string  `json:"tech_stack"`
}

// Empty reports whether the model carries nothing to plan from.
func (m *Model) Empty() bool {
	return m == nil || (len(m.Entities) == 0 && len(m.Pages) == 0 && len(m.Routes) == 0)
}
