package vocabulary

import (
	"context"
	"errors"
	"fmt"

	"bibliography/internal/logging"
)

// Seeder ensures a vocabulary and its terms exist exactly once in a term store.
type Seeder struct {
	store   TermStore
	ownerID int64
}

// NewSeeder creates a seeder writing rows owned by DefaultOwnerID.
func NewSeeder(store TermStore) *Seeder {
	return &Seeder{store: store, ownerID: DefaultOwnerID}
}

// WithOwner overrides the owner attributed to seeded rows.
func (s *Seeder) WithOwner(ownerID int64) *Seeder {
	s.ownerID = ownerID
	return s
}

// EnsureVocabulary seeds def unless a vocabulary with the same namespace URI
// is already present. Any failure while writing is fatal: a half-seeded
// vocabulary would be skipped by every later call.
func (s *Seeder) EnsureVocabulary(ctx context.Context, def *Definition) error {
	timer := logging.StartTimer(logging.CategoryVocabulary, "EnsureVocabulary "+def.Prefix)
	defer timer.Stop()

	if err := def.Validate(); err != nil {
		return err
	}

	var err error
	if tx, ok := s.store.(Transactor); ok {
		err = tx.InTx(ctx, func(ts TermStore) error {
			return s.seed(ctx, ts, def)
		})
	} else {
		err = s.seed(ctx, s.store, def)
	}

	if errors.Is(err, ErrVocabularyExists) {
		logging.Vocabulary("Vocabulary %s was created concurrently; treating as seeded", def.NamespaceURI)
		return nil
	}
	return err
}

func (s *Seeder) seed(ctx context.Context, ts TermStore, def *Definition) error {
	existing, err := ts.FindVocabularyByNamespace(ctx, def.NamespaceURI)
	if err != nil {
		return fmt.Errorf("failed to look up vocabulary %s: %w", def.NamespaceURI, err)
	}
	if existing != nil {
		logging.VocabularyDebug("Vocabulary %s already present (id=%d), skipping", def.NamespaceURI, existing.ID)
		return nil
	}

	if err := ts.InsertVocabulary(ctx, def.Fields(s.ownerID)); err != nil {
		return fmt.Errorf("failed to insert vocabulary %s: %w", def.NamespaceURI, err)
	}

	created, err := ts.FindVocabularyByNamespace(ctx, def.NamespaceURI)
	if err != nil {
		return fmt.Errorf("failed to read back vocabulary %s: %w", def.NamespaceURI, err)
	}
	if created == nil {
		return fmt.Errorf("vocabulary %s missing after insert", def.NamespaceURI)
	}

	if len(def.Classes) > 0 {
		if err := ts.BulkInsertClasses(ctx, s.rows(created.ID, def.Classes)); err != nil {
			return fmt.Errorf("failed to insert classes of %s: %w", def.Prefix, err)
		}
	}
	if len(def.Properties) > 0 {
		if err := ts.BulkInsertProperties(ctx, s.rows(created.ID, def.Properties)); err != nil {
			return fmt.Errorf("failed to insert properties of %s: %w", def.Prefix, err)
		}
	}

	logging.Vocabulary("Seeded vocabulary %s (id=%d): %d classes, %d properties",
		def.Prefix, created.ID, len(def.Classes), len(def.Properties))
	return nil
}

func (s *Seeder) rows(vocabularyID int64, terms []Term) []TermRow {
	rows := make([]TermRow, len(terms))
	for i, t := range terms {
		rows[i] = TermRow{
			OwnerID:      s.ownerID,
			VocabularyID: vocabularyID,
			LocalName:    t.LocalName,
			Label:        t.Label,
			Comment:      t.Comment,
		}
	}
	return rows
}
