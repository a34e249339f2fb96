// Package hooks implements the shared event manager the host uses to let
// plugins react to its lifecycle: controllers and forms trigger named events
// under an identifier, and plugins attach listeners to them.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"bibliography/internal/logging"
)

// Wildcard attaches a listener to an event under every identifier.
const Wildcard = "*"

// Event names triggered by the host.
const (
	EventViewShowAfter     = "view.show.after"
	EventFormAddElements   = "form.add_elements"
	EventFormAddFilters    = "form.add_input_filters"
	EventModuleInstallPost = "module.install.post"
)

// Identifiers of the host components that trigger events.
const (
	IdentifierItemShow         = "item.show"
	IdentifierSettingForm      = "form.settings"
	IdentifierSiteSettingsForm = "form.site_settings"
	IdentifierBlockForm        = "form.block"
	IdentifierModuleManager    = "module.manager"
)

// Event is passed to every listener of a trigger.
type Event struct {
	Name   string
	Target any
	Params map[string]any
}

// Param returns a parameter, or nil.
func (e *Event) Param(name string) any {
	if e.Params == nil {
		return nil
	}
	return e.Params[name]
}

// SetParam sets a parameter for later listeners and the caller.
func (e *Event) SetParam(name string, v any) {
	if e.Params == nil {
		e.Params = make(map[string]any)
	}
	e.Params[name] = v
}

// Listener handles an event. Returning an error stops propagation.
type Listener func(ctx context.Context, e *Event) error

type attachment struct {
	seq      uint64
	listener Listener
}

// Events is a shared event manager keyed by identifier and event name.
type Events struct {
	mu        sync.RWMutex
	listeners map[string]map[string][]attachment
	sequence  atomic.Uint64
}

// NewEvents creates an empty event manager.
func NewEvents() *Events {
	return &Events{listeners: make(map[string]map[string][]attachment)}
}

// Attach subscribes l to event under identifier (or Wildcard).
func (m *Events) Attach(identifier, event string, l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byEvent, ok := m.listeners[identifier]
	if !ok {
		byEvent = make(map[string][]attachment)
		m.listeners[identifier] = byEvent
	}
	byEvent[event] = append(byEvent[event], attachment{seq: m.sequence.Add(1), listener: l})
}

// Listeners returns the number of listeners a trigger of event under
// identifier would run.
func (m *Events) Listeners(identifier, event string) int {
	return len(m.collect(identifier, event))
}

func (m *Events) collect(identifier, event string) []attachment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attachment
	out = append(out, m.listeners[identifier][event]...)
	if identifier != Wildcard {
		out = append(out, m.listeners[Wildcard][event]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Trigger runs the listeners of event under identifier in attach order and
// returns the first error. Listeners attached during a trigger run from the
// next trigger on.
func (m *Events) Trigger(ctx context.Context, identifier, event string, target any, params map[string]any) (*Event, error) {
	e := &Event{Name: event, Target: target, Params: params}
	attached := m.collect(identifier, event)
	logging.Get(logging.CategoryInstall).Debug("Trigger %s/%s (%d listeners)", identifier, event, len(attached))

	for i, a := range attached {
		if err := ctx.Err(); err != nil {
			return e, err
		}
		if err := a.listener(ctx, e); err != nil {
			return e, fmt.Errorf("listener %d of %s/%s failed: %w", i, identifier, event, err)
		}
	}
	return e, nil
}
