package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Setting decodes the global setting name into out.
// Returns ErrNotFound when the setting was never written.
func (s *Store) Setting(ctx context.Context, name string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM setting WHERE name = ?", name).Scan(&raw)
	return decodeSetting(name, raw, err, out)
}

// SetSetting stores value as JSON under name.
func (s *Store) SetSetting(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO setting (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}

// SiteSetting decodes the setting name of site siteID into out.
func (s *Store) SiteSetting(ctx context.Context, siteID int64, name string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM site_setting WHERE site_id = ? AND name = ?", siteID, name).Scan(&raw)
	return decodeSetting(name, raw, err, out)
}

// SetSiteSetting stores value as JSON under name for site siteID.
func (s *Store) SetSiteSetting(ctx context.Context, siteID int64, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode site setting %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO site_setting (site_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT(site_id, name) DO UPDATE SET value = excluded.value`, siteID, name, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save site setting %s: %w", name, err)
	}
	return nil
}

func decodeSetting(name, raw string, err error, out any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("setting %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query setting %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", name, err)
	}
	return nil
}
