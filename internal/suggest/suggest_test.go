package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("openlibrary", SuggesterFunc(func(_ context.Context, q string) ([]Suggestion, error) {
		return []Suggestion{{Value: "echo " + q}}, nil
	}))
	r.Register("crossref", SuggesterFunc(func(context.Context, string) ([]Suggestion, error) { return nil, nil }))

	assert.Equal(t, []string{"crossref", "openlibrary"}, r.Names())

	got, err := r.Suggest(context.Background(), "openlibrary", "twain")
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{Value: "echo twain"}}, got)

	_, err = r.Suggest(context.Background(), "worldcat", "twain")
	assert.ErrorIs(t, err, ErrUnknownDataType)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Tom Sawyer", "tom sawyer"))
	assert.Equal(t, 0.95, Similarity("sawyer", "The Adventures of Tom Sawyer"))
	assert.Zero(t, Similarity("", "anything"))

	typo := Similarity("tom sawyr", "The Adventures of Tom Sawyer")
	unrelated := Similarity("tom sawyr", "A Brief History of Time")
	assert.Greater(t, typo, unrelated)
	assert.Less(t, typo, 0.95)
}

func TestRank(t *testing.T) {
	in := []Suggestion{
		{Value: "A Brief History of Time"},
		{Value: "Tom Sawyer Abroad"},
		{Value: "The Adventures of Tom Sawyer"},
		{Value: "Huckleberry Finn"},
	}

	got := Rank("adventures of tom sawyer", in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "The Adventures of Tom Sawyer", got[0].Value)
	assert.Equal(t, "Tom Sawyer Abroad", got[1].Value)

	assert.Len(t, Rank("x", in, 0), len(in))
	assert.Empty(t, Rank("x", nil, 3))
}
