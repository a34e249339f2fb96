// Package suggest defines value suggesters: remote lookups that turn a
// partial user entry into candidate bibliographic records.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
)

// ErrUnknownDataType is returned for a data type with no registered suggester.
var ErrUnknownDataType = errors.New("unknown data type")

// Data carries the linked value of a suggestion.
type Data struct {
	URI  string `json:"uri"`
	Info string `json:"info,omitempty"`
}

// Suggestion is one candidate value, shaped for autocomplete widgets.
type Suggestion struct {
	Value string `json:"value"`
	Data  Data   `json:"data"`
}

// Suggester looks up candidates for a query.
type Suggester interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, query string) ([]Suggestion, error)

// Suggest implements Suggester.
func (f SuggesterFunc) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	return f(ctx, query)
}

// Registry maps data type names (e.g. "openlibrary") to suggesters.
type Registry struct {
	mu         sync.RWMutex
	suggesters map[string]Suggester
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{suggesters: make(map[string]Suggester)}
}

// Register adds or replaces the suggester of a data type.
func (r *Registry) Register(dataType string, s Suggester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggesters[dataType] = s
}

// Get returns the suggester of a data type.
func (r *Registry) Get(dataType string) (Suggester, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suggesters[dataType]
	return s, ok
}

// Names returns the registered data types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.suggesters))
	for name := range r.suggesters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Suggest dispatches query to the suggester of dataType.
func (r *Registry) Suggest(ctx context.Context, dataType, query string) ([]Suggestion, error) {
	s, ok := r.Get(dataType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataType, dataType)
	}
	return s.Suggest(ctx, query)
}

// Similarity scores how well candidate matches query, between 0 and 1.
// Exact and substring matches score highest; otherwise the score blends
// whole-string and best per-token Levenshtein similarity.
func Similarity(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1
	}
	if strings.Contains(c, q) {
		return 0.95
	}

	global := normalized(q, c)

	qTokens := strings.Fields(q)
	cTokens := strings.Fields(c)
	tokenTotal := 0.0
	for _, qt := range qTokens {
		best := 0.0
		for _, ct := range cTokens {
			if s := normalized(qt, ct); s > best {
				best = s
			}
		}
		tokenTotal += best
	}
	token := tokenTotal / float64(len(qTokens))

	score := 0.4*global + 0.6*token
	if score > 0.9 {
		score = 0.9
	}
	return score
}

func normalized(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	s := 1 - float64(levenshtein.Distance(a, b, nil))/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}

// Rank orders suggestions by similarity of their value to query, best first,
// keeping the original order among ties, and truncates to limit (0 keeps all).
func Rank(query string, in []Suggestion, limit int) []Suggestion {
	type scored struct {
		s     Suggestion
		score float64
	}
	items := make([]scored, len(in))
	for i, s := range in {
		items[i] = scored{s: s, score: Similarity(query, s.Value)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Suggestion, len(items))
	for i, it := range items {
		out[i] = it.s
	}
	return out
}
