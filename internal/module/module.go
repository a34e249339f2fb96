// Package module models the host's plugin registrations and the install-time
// lifecycle of the bibliography plugin: removing the superseded Citation
// plugin and seeding the bibliographic vocabularies.
package module

import (
	"context"
)

// State is the lifecycle state of a module registration.
type State string

const (
	StateActive              State = "active"
	StateNotActive           State = "not_active"
	StateNotFound            State = "not_found"
	StateNeedsUpgrade        State = "needs_upgrade"
	StateInvalidOmekaVersion State = "invalid_omeka_version"
	StateNotInstalled        State = "not_installed"

	// States the predecessor reconciler never acts on.
	StateInvalidModule State = "invalid_module"
	StateInvalidIni    State = "invalid_ini"
)

// Reconcilable reports whether a registration in this state has an install
// record that may be removed.
func (s State) Reconcilable() bool {
	switch s {
	case StateActive, StateNotActive, StateNotFound, StateNeedsUpgrade, StateInvalidOmekaVersion:
		return true
	default:
		return false
	}
}

// Registration is a module known to the host.
type Registration interface {
	ID() string
	State() State
	SetState(State)
}

// Registry looks up module registrations by name.
type Registry interface {
	Module(name string) (Registration, bool)
}

// Entity is the persisted install record of a module.
type Entity struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
	Version  string `json:"version"`
}

// EntityStore is a unit of work over module install records.
// FindModuleEntity returns nil, nil when no record exists. Remove only
// schedules the deletion; Flush commits every pending change at once.
type EntityStore interface {
	FindModuleEntity(ctx context.Context, id string) (*Entity, error)
	Remove(entity *Entity)
	Flush(ctx context.Context) error
}

// Notifier surfaces user-facing messages in the administrative UI.
type Notifier interface {
	AddWarning(msg string)
	AddNotice(msg string)
}
