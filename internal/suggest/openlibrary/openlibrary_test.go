package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliography/internal/citation"
	"bibliography/internal/suggest"
)

const booksResponse = `{
  "ISBN:9780306406157": {
    "url": "https://openlibrary.org/books/OL7353617M/Fantastic_Mr._Fox",
    "key": "/books/OL7353617M",
    "title": "Fantastic Mr. Fox",
    "authors": [{"url": "https://openlibrary.org/authors/OL34184A", "name": "Roald Dahl"}],
    "number_of_pages": 96,
    "identifiers": {"isbn_13": ["9780306406157"], "isbn_10": ["0306406152"]},
    "publishers": [{"name": "Puffin"}],
    "publish_places": [{"name": "New York"}],
    "publish_date": "October 1, 1988"
  }
}`

const searchResponse = `{
  "numFound": 3,
  "docs": [
    {"key": "/works/OL1W", "title": "Tom Sawyer Abroad", "author_name": ["Mark Twain"], "first_publish_year": 1894},
    {"key": "/works/OL2W", "title": "The Adventures of Tom Sawyer", "author_name": ["Mark Twain"], "first_publish_year": 1876, "publisher": ["American Publishing Company"], "isbn": ["9780143039563"]},
    {"key": "/works/OL3W", "title": "A Brief History of Time", "author_name": ["Stephen Hawking"], "first_publish_year": 1988}
  ]
}`

func newTestServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/books", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "ISBN:9780306406157", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(booksResponse))
	})
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(searchResponse))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, opts Options) *Client {
	opts.BaseURL = srv.URL + "/"
	opts.UserAgent = "test-agent/1.0"
	if opts.MaxResults == 0 {
		opts.MaxResults = 5
	}
	return New(opts)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"978-0-306-40615-7", "ISBN:9780306406157", true},
		{"ISBN 0306406152", "ISBN:0306406152", true},
		{"isbn:080442957x", "ISBN:080442957X", true},
		{"9780306406158", "", false},
		{"OL7353617M", "OLID:OL7353617M", true},
		{"ol45804w", "OLID:OL45804W", true},
		{"oclc:297222669", "OCLC:297222669", true},
		{"ocm12345678", "OCLC:12345678", true},
		{"lccn 2001-012345", "LCCN:2001012345", true},
		{"tom sawyer", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseIdentifier(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidISBN(t *testing.T) {
	assert.True(t, ValidISBN("0306406152"))
	assert.True(t, ValidISBN("080442957X"))
	assert.False(t, ValidISBN("0306406153"))
	assert.False(t, ValidISBN("X306406152"))
	assert.True(t, ValidISBN("9780306406157"))
	assert.False(t, ValidISBN("1230306406157"), "bad prefix")
	assert.False(t, ValidISBN("12345"))
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestClient_ISBNLookup(t *testing.T) {
	var requests atomic.Int32
	srv := newTestServer(t, &requests)
	c := newTestClient(srv, Options{})

	got, err := c.Suggest(context.Background(), "978-0-306-40615-7")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fantastic Mr. Fox / Roald Dahl (1988)", got[0].Value)
	assert.Equal(t, srv.URL+"/books/OL7353617M", got[0].Data.URI)
	assert.Equal(t, "ISBN: 9780306406157; Publisher: Puffin; Date: October 1, 1988; Pages: 96", got[0].Data.Info)
}

func TestClient_FreeTextSearchIsRanked(t *testing.T) {
	var requests atomic.Int32
	srv := newTestServer(t, &requests)
	c := newTestClient(srv, Options{})

	got, err := c.Suggest(context.Background(), "adventures of tom sawyer")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "The Adventures of Tom Sawyer / Mark Twain (1876)", got[0].Value)
	assert.Equal(t, srv.URL+"/works/OL2W", got[0].Data.URI)
	assert.Equal(t, "ISBN: 9780143039563; Publisher: American Publishing Company; First published: 1876", got[0].Data.Info)
}

func TestClient_EmptyQuery(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	got, err := c.Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, c.Stats().Requests)
}

func TestClient_ProcessorLabels(t *testing.T) {
	var requests atomic.Int32
	srv := newTestServer(t, &requests)

	var gotOpts citation.Options
	p := citation.ProcessorFunc(func(_ context.Context, item citation.Item, opts citation.Options) (string, error) {
		gotOpts = opts
		return `<div class="csl-entry">Dahl, R. <i>` + item.Title + `</i>.</div>`, nil
	})
	c := newTestClient(srv, Options{Processor: p})

	got, err := c.Suggest(context.Background(), "978-0306406157")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dahl, R. Fantastic Mr. Fox.", got[0].Value)
	assert.Equal(t, citation.DefaultStyle, gotOpts.Style)
}

func TestClient_ProcessorFailureFallsBackToPlainLabel(t *testing.T) {
	var requests atomic.Int32
	srv := newTestServer(t, &requests)
	p := citation.ProcessorFunc(func(context.Context, citation.Item, citation.Options) (string, error) {
		return "", citation.ErrNoProcessor
	})
	c := newTestClient(srv, Options{Processor: p})

	got, err := c.Suggest(context.Background(), "9780306406157")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fantastic Mr. Fox / Roald Dahl (1988)", got[0].Value)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search.json" && r.URL.Query().Get("q") == "broken" {
			_, _ = w.Write([]byte("{not json"))
			return
		}
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Suggest(context.Background(), "twain")
	assert.ErrorContains(t, err, "status 429")

	_, err = c.Suggest(context.Background(), "broken")
	assert.ErrorContains(t, err, "invalid JSON")

	// Failures are not cached.
	_, err = c.Suggest(context.Background(), "twain")
	assert.Error(t, err)
	assert.Equal(t, uint64(3), c.Stats().Requests)
}

// =============================================================================
// CACHE / SINGLEFLIGHT
// =============================================================================

func TestClient_CachesNormalizedQuery(t *testing.T) {
	var requests atomic.Int32
	srv := newTestServer(t, &requests)
	c := newTestClient(srv, Options{})

	first, err := c.Suggest(context.Background(), "Tom  Sawyer")
	require.NoError(t, err)
	second, err := c.Suggest(context.Background(), " tom sawyer ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Requests: 1}, c.Stats())

	// Callers get their own copy.
	second[0].Value = "mutated"
	third, err := c.Suggest(context.Background(), "tom sawyer")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", third[0].Value)
}

func TestClient_ConcurrentLookupsShareRequest(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]suggest.Suggestion, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Suggest(context.Background(), "sawyer")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	require.Eventually(t, func() bool { return requests.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), requests.Load())
	for _, res := range results {
		assert.Len(t, res, 3)
	}
}

func TestClient_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer srv.Close()
	defer close(release)
	c := New(Options{BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Suggest(ctx, "sawyer")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
