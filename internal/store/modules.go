package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bibliography/internal/logging"
	"bibliography/internal/module"
)

// FindModuleEntity returns the install record of a module, or nil, nil.
func (s *Store) FindModuleEntity(ctx context.Context, id string) (*module.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e      module.Entity
		active int
	)
	err := s.db.QueryRowContext(ctx, "SELECT id, is_active, version FROM module WHERE id = ?", id).
		Scan(&e.ID, &active, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query module %s: %w", id, err)
	}
	e.IsActive = active != 0
	return &e, nil
}

// Remove schedules the deletion of an install record until the next Flush.
func (s *Store) Remove(e *module.Entity) {
	if e == nil {
		return
	}
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending = append(s.pending, e)
}

// Flush deletes every scheduled record in one transaction. Pending removals
// are discarded whether or not the commit succeeds.
func (s *Store) Flush(ctx context.Context) error {
	s.pendingMu.Lock()
	pending := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range pending {
			if _, err := tx.ExecContext(ctx, "DELETE FROM module WHERE id = ?", e.ID); err != nil {
				return fmt.Errorf("failed to delete module %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Store("Flushed %d module removal(s)", len(pending))
	return nil
}

// ListModules returns every install record sorted by id.
func (s *Store) ListModules(ctx context.Context) ([]module.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, is_active, version FROM module ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var out []module.Entity
	for rows.Next() {
		var (
			e      module.Entity
			active int
		)
		if err := rows.Scan(&e.ID, &active, &e.Version); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		e.IsActive = active != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveModule inserts or updates an install record.
func (s *Store) SaveModule(ctx context.Context, e module.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	if e.IsActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO module (id, is_active, version) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET is_active = excluded.is_active, version = excluded.version`,
		e.ID, active, e.Version)
	if err != nil {
		return fmt.Errorf("failed to save module %s: %w", e.ID, err)
	}
	return nil
}
