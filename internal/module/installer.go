package module

import (
	"context"
	"fmt"

	"bibliography/internal/logging"
	"bibliography/internal/vocabulary"
)

// VocabularySeeder seeds one vocabulary definition idempotently.
type VocabularySeeder interface {
	EnsureVocabulary(ctx context.Context, def *vocabulary.Definition) error
}

// Installer runs the post-install steps: predecessor reconciliation first,
// then vocabulary seeding. It never retries; the first failure aborts.
type Installer struct {
	reconciler  *Reconciler
	seeder      VocabularySeeder
	definitions []*vocabulary.Definition
}

// NewInstaller creates an installer seeding defs in order.
func NewInstaller(reconciler *Reconciler, seeder VocabularySeeder, defs ...*vocabulary.Definition) *Installer {
	return &Installer{reconciler: reconciler, seeder: seeder, definitions: defs}
}

// OnPostInstall is invoked once by the host's post-install hook.
func (i *Installer) OnPostInstall(ctx context.Context) error {
	timer := logging.StartTimer(logging.CategoryInstall, "OnPostInstall")
	defer timer.StopWithInfo()

	outcome, err := i.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile predecessor module: %w", err)
	}
	logging.InstallDebug("Predecessor reconciliation: %s", outcome)

	for _, def := range i.definitions {
		if err := i.seeder.EnsureVocabulary(ctx, def); err != nil {
			return fmt.Errorf("failed to seed vocabulary %s: %w", def.Prefix, err)
		}
	}
	return nil
}
