package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bibliography/internal/logging"
	"bibliography/internal/vocabulary"
)

// bulkChunkSize bounds the rows of one multi-row INSERT (5 parameters each).
const bulkChunkSize = 150

// txTerms is a vocabulary.TermStore bound to an open transaction.
type txTerms struct {
	q queryer
}

func (t *txTerms) FindVocabularyByNamespace(ctx context.Context, uri string) (*vocabulary.Vocabulary, error) {
	return findVocabulary(ctx, t.q, "namespace_uri", uri)
}

func (t *txTerms) InsertVocabulary(ctx context.Context, f vocabulary.VocabularyFields) error {
	return insertVocabulary(ctx, t.q, f)
}

func (t *txTerms) BulkInsertClasses(ctx context.Context, rows []vocabulary.TermRow) error {
	return bulkInsertTerms(ctx, t.q, "resource_class", rows)
}

func (t *txTerms) BulkInsertProperties(ctx context.Context, rows []vocabulary.TermRow) error {
	return bulkInsertTerms(ctx, t.q, "property", rows)
}

// InTx runs fn against a term store bound to a single transaction; any error
// rolls back every write fn made.
func (s *Store) InTx(ctx context.Context, fn func(vocabulary.TermStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&txTerms{q: tx})
	})
}

// FindVocabularyByNamespace returns nil, nil when no vocabulary has uri.
func (s *Store) FindVocabularyByNamespace(ctx context.Context, uri string) (*vocabulary.Vocabulary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findVocabulary(ctx, s.db, "namespace_uri", uri)
}

// FindVocabularyByPrefix returns nil, nil when no vocabulary has prefix.
func (s *Store) FindVocabularyByPrefix(ctx context.Context, prefix string) (*vocabulary.Vocabulary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findVocabulary(ctx, s.db, "prefix", prefix)
}

// InsertVocabulary creates a vocabulary row.
func (s *Store) InsertVocabulary(ctx context.Context, f vocabulary.VocabularyFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertVocabulary(ctx, s.db, f)
}

// BulkInsertClasses inserts class rows in one transaction.
func (s *Store) BulkInsertClasses(ctx context.Context, rows []vocabulary.TermRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return bulkInsertTerms(ctx, tx, "resource_class", rows)
	})
}

// BulkInsertProperties inserts property rows in one transaction.
func (s *Store) BulkInsertProperties(ctx context.Context, rows []vocabulary.TermRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return bulkInsertTerms(ctx, tx, "property", rows)
	})
}

// ListVocabularies returns every vocabulary in creation order.
func (s *Store) ListVocabularies(ctx context.Context) ([]vocabulary.Vocabulary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, namespace_uri, prefix, label, comment FROM vocabulary ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabularies: %w", err)
	}
	defer rows.Close()

	var out []vocabulary.Vocabulary
	for rows.Next() {
		v, err := scanVocabulary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// ListClasses returns the classes of a vocabulary in insertion order.
func (s *Store) ListClasses(ctx context.Context, vocabularyID int64) ([]vocabulary.TermRow, error) {
	return s.listTerms(ctx, "resource_class", vocabularyID)
}

// ListProperties returns the properties of a vocabulary in insertion order.
func (s *Store) ListProperties(ctx context.Context, vocabularyID int64) ([]vocabulary.TermRow, error) {
	return s.listTerms(ctx, "property", vocabularyID)
}

// CountTerms returns the number of classes and properties of a vocabulary.
func (s *Store) CountTerms(ctx context.Context, vocabularyID int64) (classes, properties int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM resource_class WHERE vocabulary_id = ?),
		(SELECT COUNT(*) FROM property WHERE vocabulary_id = ?)`,
		vocabularyID, vocabularyID).Scan(&classes, &properties)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count terms: %w", err)
	}
	return classes, properties, nil
}

func (s *Store) listTerms(ctx context.Context, table string, vocabularyID int64) ([]vocabulary.TermRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT owner_id, vocabulary_id, local_name, label, comment FROM %s WHERE vocabulary_id = ? ORDER BY id", table),
		vocabularyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []vocabulary.TermRow
	for rows.Next() {
		var (
			r       vocabulary.TermRow
			owner   sql.NullInt64
			comment sql.NullString
		)
		if err := rows.Scan(&owner, &r.VocabularyID, &r.LocalName, &r.Label, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		r.OwnerID = owner.Int64
		r.Comment = nullableString(comment)
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVocabulary(sc rowScanner) (*vocabulary.Vocabulary, error) {
	var (
		v       vocabulary.Vocabulary
		owner   sql.NullInt64
		comment sql.NullString
	)
	if err := sc.Scan(&v.ID, &owner, &v.NamespaceURI, &v.Prefix, &v.Label, &comment); err != nil {
		return nil, err
	}
	v.OwnerID = owner.Int64
	v.Comment = nullableString(comment)
	return &v, nil
}

func findVocabulary(ctx context.Context, q queryer, column, value string) (*vocabulary.Vocabulary, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT id, owner_id, namespace_uri, prefix, label, comment FROM vocabulary WHERE %s = ?", column), value)
	v, err := scanVocabulary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	return v, nil
}

func insertVocabulary(ctx context.Context, q queryer, f vocabulary.VocabularyFields) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO vocabulary (owner_id, namespace_uri, prefix, label, comment) VALUES (?, ?, ?, ?, ?)",
		f.OwnerID, f.NamespaceURI, f.Prefix, f.Label, f.Comment)
	switch {
	case err == nil:
		logging.StoreDebug("Inserted vocabulary %s (%s)", f.Prefix, f.NamespaceURI)
		return nil
	case !isUniqueViolation(err):
		return fmt.Errorf("failed to insert vocabulary: %w", err)
	}

	// SQLite names only the first violated constraint, which is the prefix
	// when the whole row is a duplicate. Ask for the namespace directly.
	existing, lookupErr := findVocabulary(ctx, q, "namespace_uri", f.NamespaceURI)
	if lookupErr != nil {
		return fmt.Errorf("failed to insert vocabulary: %w", errors.Join(err, lookupErr))
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", vocabulary.ErrVocabularyExists, f.NamespaceURI)
	}
	return fmt.Errorf("prefix %q is already used by another vocabulary: %w", f.Prefix, err)
}

func bulkInsertTerms(ctx context.Context, q queryer, table string, rows []vocabulary.TermRow) error {
	for start := 0; start < len(rows); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var sb strings.Builder
		fmt.Fprintf(&sb, "INSERT INTO %s (owner_id, vocabulary_id, local_name, label, comment) VALUES ", table)
		args := make([]any, 0, len(chunk)*5)
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, r.OwnerID, r.VocabularyID, r.LocalName, r.Label, r.Comment)
		}

		if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s: %v", vocabulary.ErrDuplicateDefinition, table, err)
			}
			return fmt.Errorf("failed to insert %s rows: %w", table, err)
		}
	}
	logging.StoreDebug("Inserted %d %s rows", len(rows), table)
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
