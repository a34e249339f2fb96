// Package vocabulary defines namespaced term vocabularies (classes and
// properties) and seeds them into a shared term store exactly once.
package vocabulary

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOwnerID is the administrative owner attributed to seeded rows.
const DefaultOwnerID int64 = 1

var (
	// ErrDuplicateDefinition is returned when a local name occurs twice
	// among the classes (or the properties) of one vocabulary.
	ErrDuplicateDefinition = errors.New("duplicate term definition")

	// ErrVocabularyExists is returned by a term store when the namespace URI
	// is already taken. The seeder treats it as "already seeded".
	ErrVocabularyExists = errors.New("vocabulary already exists")

	// ErrInvalidDefinition is returned for definitions missing required fields.
	ErrInvalidDefinition = errors.New("invalid vocabulary definition")
)

// Term is a class or property definition, keyed by its local name.
type Term struct {
	LocalName string  `yaml:"local_name" json:"local_name"`
	Label     string  `yaml:"label" json:"label"`
	Comment   *string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Definition is a complete vocabulary as shipped in a data file.
type Definition struct {
	NamespaceURI string  `yaml:"namespace_uri" json:"namespace_uri"`
	Prefix       string  `yaml:"prefix" json:"prefix"`
	Label        string  `yaml:"label" json:"label"`
	Comment      *string `yaml:"comment,omitempty" json:"comment,omitempty"`
	Classes      []Term  `yaml:"classes" json:"classes"`
	Properties   []Term  `yaml:"properties" json:"properties"`
}

// Vocabulary is a stored vocabulary row.
type Vocabulary struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"owner_id"`
	NamespaceURI string  `json:"namespace_uri"`
	Prefix       string  `json:"prefix"`
	Label        string  `json:"label"`
	Comment      *string `json:"comment,omitempty"`
}

// IRI returns the full IRI of a term of this vocabulary.
func (v *Vocabulary) IRI(localName string) string {
	return v.NamespaceURI + localName
}

// VocabularyFields are the columns written when a vocabulary is created.
type VocabularyFields struct {
	OwnerID      int64
	NamespaceURI string
	Prefix       string
	Label        string
	Comment      *string
}

// TermRow is one class or property row bound to a stored vocabulary.
type TermRow struct {
	OwnerID      int64   `json:"owner_id"`
	VocabularyID int64   `json:"vocabulary_id"`
	LocalName    string  `json:"local_name"`
	Label        string  `json:"label"`
	Comment      *string `json:"comment,omitempty"`
}

// TermStore is the persistence the seeder writes through.
// FindVocabularyByNamespace returns nil, nil when nothing matches.
type TermStore interface {
	FindVocabularyByNamespace(ctx context.Context, uri string) (*Vocabulary, error)
	InsertVocabulary(ctx context.Context, fields VocabularyFields) error
	BulkInsertClasses(ctx context.Context, rows []TermRow) error
	BulkInsertProperties(ctx context.Context, rows []TermRow) error
}

// Transactor is implemented by term stores that can run a seeding pass
// atomically. fn receives a TermStore bound to the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(TermStore) error) error
}

// IRI returns the full IRI of a term of this definition.
func (d *Definition) IRI(localName string) string {
	return d.NamespaceURI + localName
}

// Fields returns the vocabulary columns for this definition.
func (d *Definition) Fields(ownerID int64) VocabularyFields {
	return VocabularyFields{
		OwnerID:      ownerID,
		NamespaceURI: d.NamespaceURI,
		Prefix:       d.Prefix,
		Label:        d.Label,
		Comment:      d.Comment,
	}
}

// Validate checks required fields and local name uniqueness per term kind.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.NamespaceURI) == "" {
		return fmt.Errorf("%w: namespace URI is required", ErrInvalidDefinition)
	}
	if strings.TrimSpace(d.Prefix) == "" {
		return fmt.Errorf("%w: prefix is required", ErrInvalidDefinition)
	}
	if strings.TrimSpace(d.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidDefinition)
	}
	if err := checkTerms("class", d.Classes); err != nil {
		return err
	}
	return checkTerms("property", d.Properties)
}

func checkTerms(kind string, terms []Term) error {
	seen := make(map[string]struct{}, len(terms))
	for i, t := range terms {
		if strings.TrimSpace(t.LocalName) == "" {
			return fmt.Errorf("%w: %s #%d has no local name", ErrInvalidDefinition, kind, i+1)
		}
		if _, dup := seen[t.LocalName]; dup {
			return fmt.Errorf("%w: %s %q", ErrDuplicateDefinition, kind, t.LocalName)
		}
		seen[t.LocalName] = struct{}{}
	}
	return nil
}

// LoadDefinition decodes a YAML vocabulary definition.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitionFile reads a YAML vocabulary definition from disk.
func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()
	return LoadDefinition(f)
}

//go:embed data/fabio.yaml
var fabioYAML string

// FaBiO returns a fresh copy of the bundled FaBiO definition.
func FaBiO() (*Definition, error) {
	return LoadDefinition(strings.NewReader(fabioYAML))
}
