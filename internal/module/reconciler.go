package module

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bibliography/internal/logging"
)

// LegacyModuleName is the plugin superseded by Bibliography.
const LegacyModuleName = "Citation"

// Message templates. Arguments are the replacing and the replaced module names.
const (
	MsgPredecessorUnremovable = "The module %[1]s replaces the module %[2]s, that cannot be automatically uninstalled."
	MsgPredecessorRemoved     = "The module %[1]s replaces the module %[2]s, that was automatically uninstalled."
)

// ErrPredecessorUnremovable describes a predecessor whose install record is
// missing. It is reported as a warning, never returned.
var ErrPredecessorUnremovable = errors.New("predecessor module cannot be automatically uninstalled")

// PersistenceError wraps a store failure during reconciliation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Outcome reports what a reconciliation pass did.
type Outcome int

const (
	// OutcomeAbsent: no predecessor registration exists.
	OutcomeAbsent Outcome = iota
	// OutcomeIgnored: the predecessor is in a state outside our concern.
	OutcomeIgnored
	// OutcomeWarned: the predecessor has no install record; a warning was emitted.
	OutcomeWarned
	// OutcomeRemoved: the install record was deleted and the state reset.
	OutcomeRemoved
	// OutcomeFailed: the store failed; nothing was removed or reported.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return "absent"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeWarned:
		return "warned"
	case OutcomeRemoved:
		return "removed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Reconciler removes the install record of a superseded module.
type Reconciler struct {
	registry    Registry
	entities    EntityStore
	notifier    Notifier
	translator  Translator
	name        string
	predecessor string
}

// NewReconciler creates a reconciler removing LegacyModuleName on behalf of
// the module called name.
func NewReconciler(name string, registry Registry, entities EntityStore, notifier Notifier) *Reconciler {
	return &Reconciler{
		registry:    registry,
		entities:    entities,
		notifier:    notifier,
		translator:  IdentityTranslator,
		name:        name,
		predecessor: LegacyModuleName,
	}
}

// WithPredecessor overrides the name of the superseded module.
func (r *Reconciler) WithPredecessor(name string) *Reconciler {
	r.predecessor = name
	return r
}

// WithTranslator sets the translator applied to user-facing messages.
func (r *Reconciler) WithTranslator(t Translator) *Reconciler {
	if t != nil {
		r.translator = t
	}
	return r
}

// Reconcile deletes the predecessor's install record when it is in a
// reconcilable state. Deletion, the success notice and the state change
// happen only after the flush succeeds; store failures are returned as
// *PersistenceError.
func (r *Reconciler) Reconcile(ctx context.Context) (Outcome, error) {
	reg, ok := r.registry.Module(r.predecessor)
	if !ok || reg == nil {
		return OutcomeAbsent, nil
	}

	state := reg.State()
	if !state.Reconcilable() {
		return OutcomeIgnored, nil
	}

	entity, err := r.entities.FindModuleEntity(ctx, reg.ID())
	if err != nil {
		return OutcomeFailed, &PersistenceError{Op: "look up module " + reg.ID(), Err: err}
	}
	if entity == nil {
		logging.InstallWarn("Module %s (state %s) has no install record: %v", reg.ID(), state, ErrPredecessorUnremovable)
		r.notifier.AddWarning(r.message(MsgPredecessorUnremovable))
		return OutcomeWarned, nil
	}

	r.entities.Remove(entity)
	if err := r.entities.Flush(ctx); err != nil {
		return OutcomeFailed, &PersistenceError{Op: "remove module " + reg.ID(), Err: err}
	}

	r.notifier.AddNotice(r.message(MsgPredecessorRemoved))
	reg.SetState(StateNotInstalled)
	logging.Install("Removed install record of module %s (was %s)", reg.ID(), state)
	return OutcomeRemoved, nil
}

// message renders template with both module names and localizes it. A
// catalog may key the rendered sentence or the template; a translated
// template is formatted only when it still carries verbs.
func (r *Reconciler) message(template string) string {
	rendered := fmt.Sprintf(template, r.name, r.predecessor)
	if t := r.translator.Translate(rendered); t != rendered {
		return t
	}
	t := r.translator.Translate(template)
	switch {
	case t == template:
		return rendered
	case strings.Contains(t, "%"):
		return fmt.Sprintf(t, r.name, r.predecessor)
	default:
		return t
	}
}
