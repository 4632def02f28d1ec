package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// Handler performs the side effect bound to one event name.
type Handler func(ctx context.Context, evt domain.Event) error

// Registry maps event names to handlers. It is filled at startup and handed
// to New, which takes a private copy.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to an event name. Each name takes one handler.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return domain.ErrEmptyEventName
	}
	if h == nil {
		return errors.New("handler is nil")
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler already registered for %s", name)
	}
	r.handlers[name] = h
	return nil
}

// Names returns the registered event names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) snapshot() map[string]Handler {
	out := make(map[string]Handler, len(r.handlers))
	for name, h := range r.handlers {
		out[name] = h
	}
	return out
}
