package respond

import (
	"github.com/ppiankov/factbot/internal/model"
)

// Request is the input of one handler invocation
type Request struct {
	Intent    string
	Entities  []model.EntityMatch
	Entity    model.EntityMatch // First match of the handler's required type
	Reference *model.Reference
}

// HandlerFunc produces a reply. An empty reply declines the request and
// evaluation continues with the next rule.
type HandlerFunc func(req Request) string

// Handler is a dedicated reply rule for one or more intents
type Handler struct {
	Name     string
	Intents  []string
	Requires model.EntityType // Empty for aggregate handlers
	Respond  HandlerFunc
}

// Aggregate reports whether the handler answers from reference data alone
func (h Handler) Aggregate() bool {
	return h.Requires == ""
}

// Handles reports whether the handler is registered for intent
func (h Handler) Handles(intent string) bool {
	for _, i := range h.Intents {
		if i == intent {
			return true
		}
	}
	return false
}

// Registry keeps handlers in registration order
type Registry struct {
	handlers []Handler
}

// NewRegistry creates a new handler registry with the given handlers
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make([]Handler, 0, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register appends a handler; earlier registrations take precedence
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Entity returns the entity-requiring handlers for intent, in order
func (r *Registry) Entity(intent string) []Handler {
	return r.find(intent, false)
}

// Aggregates returns the aggregate handlers for intent, in order
func (r *Registry) Aggregates(intent string) []Handler {
	return r.find(intent, true)
}

// Len returns the number of registered handlers
func (r *Registry) Len() int {
	return len(r.handlers)
}

func (r *Registry) find(intent string, aggregate bool) []Handler {
	var found []Handler
	for _, h := range r.handlers {
		if h.Aggregate() == aggregate && h.Handles(intent) {
			found = append(found, h)
		}
	}
	return found
}
