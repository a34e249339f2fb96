package vocabulary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory TermStore that counts writes.
type memStore struct {
	vocabularies []Vocabulary
	classes      []TermRow
	properties   []TermRow
	writes       int

	insertErr   error
	classesErr  error
	nextID      int64
	hideInserts bool
}

func (m *memStore) FindVocabularyByNamespace(_ context.Context, uri string) (*Vocabulary, error) {
	for i := range m.vocabularies {
		if m.vocabularies[i].NamespaceURI == uri {
			v := m.vocabularies[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertVocabulary(_ context.Context, f VocabularyFields) error {
	m.writes++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.hideInserts {
		return nil
	}
	m.nextID++
	m.vocabularies = append(m.vocabularies, Vocabulary{
		ID: m.nextID + 10, OwnerID: f.OwnerID, NamespaceURI: f.NamespaceURI,
		Prefix: f.Prefix, Label: f.Label, Comment: f.Comment,
	})
	return nil
}

func (m *memStore) BulkInsertClasses(_ context.Context, rows []TermRow) error {
	m.writes++
	if m.classesErr != nil {
		return m.classesErr
	}
	m.classes = append(m.classes, rows...)
	return nil
}

func (m *memStore) BulkInsertProperties(_ context.Context, rows []TermRow) error {
	m.writes++
	m.properties = append(m.properties, rows...)
	return nil
}

func strPtr(s string) *string { return &s }

func testDefinition() *Definition {
	return &Definition{
		NamespaceURI: "http://example.org/ns/",
		Prefix:       "ex",
		Label:        "Example",
		Classes: []Term{
			{LocalName: "Book", Label: "book", Comment: strPtr("A book.")},
			{LocalName: "Article", Label: "article"},
			{LocalName: "Thesis", Label: "thesis"},
		},
		Properties: []Term{
			{LocalName: "hasURL", Label: "has URL"},
			{LocalName: "hasPageCount", Label: "has page count", Comment: strPtr("Pages.")},
		},
	}
}

func TestEnsureVocabulary_SeedsAllTerms(t *testing.T) {
	store := &memStore{}
	def := testDefinition()

	require.NoError(t, NewSeeder(store).EnsureVocabulary(context.Background(), def))

	require.Len(t, store.vocabularies, 1)
	vocab := store.vocabularies[0]
	assert.Equal(t, DefaultOwnerID, vocab.OwnerID)
	assert.Equal(t, "ex", vocab.Prefix)
	assert.Nil(t, vocab.Comment)

	require.Len(t, store.classes, 3)
	require.Len(t, store.properties, 2)

	seen := map[string]bool{}
	for _, row := range append(append([]TermRow{}, store.classes...), store.properties...) {
		assert.Equal(t, vocab.ID, row.VocabularyID, row.LocalName)
		assert.Equal(t, DefaultOwnerID, row.OwnerID)
		seen[row.LocalName] = true
	}
	assert.Len(t, seen, 5)

	assert.Equal(t, "A book.", *store.classes[0].Comment)
	assert.Nil(t, store.classes[1].Comment)
}

func TestEnsureVocabulary_Idempotent(t *testing.T) {
	store := &memStore{}
	seeder := NewSeeder(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, seeder.EnsureVocabulary(ctx, testDefinition()))
	}

	assert.Len(t, store.vocabularies, 1)
	assert.Len(t, store.classes, 3)
	assert.Len(t, store.properties, 2)
	// One vocabulary insert plus one batch per term kind; later calls write nothing.
	assert.Equal(t, 3, store.writes)
}

func TestEnsureVocabulary_DuplicateLocalNameIsFatal(t *testing.T) {
	store := &memStore{}
	def := testDefinition()
	def.Classes = append(def.Classes, Term{LocalName: "Book", Label: "again"})

	err := NewSeeder(store).EnsureVocabulary(context.Background(), def)

	require.ErrorIs(t, err, ErrDuplicateDefinition)
	assert.Contains(t, err.Error(), `"Book"`)
	assert.Zero(t, store.writes)
}

func TestEnsureVocabulary_SameLocalNameAcrossKindsAllowed(t *testing.T) {
	store := &memStore{}
	def := testDefinition()
	def.Properties = append(def.Properties, Term{LocalName: "Book", Label: "book property"})

	require.NoError(t, NewSeeder(store).EnsureVocabulary(context.Background(), def))
	assert.Len(t, store.properties, 3)
}

func TestEnsureVocabulary_ConcurrentCreateTreatedAsSeeded(t *testing.T) {
	store := &memStore{insertErr: ErrVocabularyExists}

	err := NewSeeder(store).EnsureVocabulary(context.Background(), testDefinition())

	require.NoError(t, err)
	assert.Empty(t, store.classes)
}

func TestEnsureVocabulary_BulkFailurePropagates(t *testing.T) {
	boom := errors.New("disk full")
	store := &memStore{classesErr: boom}

	err := NewSeeder(store).EnsureVocabulary(context.Background(), testDefinition())

	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.properties, "properties must not be written after a failed class batch")
}

func TestEnsureVocabulary_MissingAfterInsert(t *testing.T) {
	store := &memStore{hideInserts: true}

	err := NewSeeder(store).EnsureVocabulary(context.Background(), testDefinition())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing after insert")
}

func TestEnsureVocabulary_InvalidDefinition(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"no namespace", func(d *Definition) { d.NamespaceURI = " " }},
		{"no prefix", func(d *Definition) { d.Prefix = "" }},
		{"no label", func(d *Definition) { d.Label = "" }},
		{"empty local name", func(d *Definition) { d.Properties[0].LocalName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.mutate(def)
			err := NewSeeder(&memStore{}).EnsureVocabulary(context.Background(), def)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestWithOwner(t *testing.T) {
	store := &memStore{}
	require.NoError(t, NewSeeder(store).WithOwner(7).EnsureVocabulary(context.Background(), testDefinition()))

	assert.Equal(t, int64(7), store.vocabularies[0].OwnerID)
	assert.Equal(t, int64(7), store.classes[0].OwnerID)
}

func TestFaBiO(t *testing.T) {
	def, err := FaBiO()
	require.NoError(t, err)

	assert.Equal(t, FaBiONamespace, def.NamespaceURI)
	assert.Equal(t, FaBiOPrefix, def.Prefix)
	assert.Equal(t, "FaBiO, the FRBR-aligned Bibliographic Ontology", def.Label)
	assert.Nil(t, def.Comment)
	assert.Len(t, def.Classes, 252)
	assert.Len(t, def.Properties, 53)
	assert.Equal(t, ClassBook, def.IRI("Book"))

	var workCollection *Term
	for i := range def.Classes {
		if def.Classes[i].LocalName == "WorkCollection" {
			workCollection = &def.Classes[i]
		}
	}
	require.NotNil(t, workCollection)
	assert.Nil(t, workCollection.Comment, "NULL comments stay absent")
}

func TestFaBiO_ReturnsFreshCopy(t *testing.T) {
	a, err := FaBiO()
	require.NoError(t, err)
	a.Classes[0].Label = "mutated"

	b, err := FaBiO()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.Classes[0].Label)
}

func TestLoadDefinition(t *testing.T) {
	src := `
namespace_uri: "http://example.org/bibo/"
prefix: bibo
label: Bibliographic Ontology
comment: A small test vocabulary.
classes:
  - local_name: Book
    label: book
properties:
  - local_name: isbn
    label: ISBN
    comment: International Standard Book Number.
`
	def, err := LoadDefinition(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "bibo", def.Prefix)
	require.NotNil(t, def.Comment)
	assert.Equal(t, "A small test vocabulary.", *def.Comment)
	assert.Equal(t, "http://example.org/bibo/isbn", def.IRI(def.Properties[0].LocalName))
}

func TestLoadDefinition_RejectsUnknownFieldsAndDuplicates(t *testing.T) {
	_, err := LoadDefinition(strings.NewReader("namespace_uri: x\nprefix: p\nlabel: l\nbogus: 1\n"))
	assert.Error(t, err)

	dup := "namespace_uri: x\nprefix: p\nlabel: l\nclasses:\n  - {local_name: A, label: a}\n  - {local_name: A, label: b}\n"
	_, err = LoadDefinition(strings.NewReader(dup))
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
}

func TestLoadDefinitionFile_Missing(t *testing.T) {
	_, err := LoadDefinitionFile("/nonexistent/vocab.yaml")
	assert.Error(t, err)
}
