package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Hit is a typed search result.
type Hit[T any] struct {
	ID    string
	Score float64
	Item  T
}

// SearchBuilder is a fluent builder for typed search queries.
type SearchBuilder[T any] struct {
	idx *TypedIndex[T]

	matches  []map[string]any
	filters  []map[string]any
	sorts    []map[string]string
	size     *int
	from     *int
	minScore float64
}

// Query adds a full-text match clause on field.
func (b *SearchBuilder[T]) Query(field, text string) *SearchBuilder[T] {
	b.matches = append(b.matches, map[string]any{
		"match": map[string]any{field: text},
	})
	return b
}

// Where adds an exact-match term filter. Filters do not affect scoring.
func (b *SearchBuilder[T]) Where(field string, value any) *SearchBuilder[T] {
	b.filters = append(b.filters, map[string]any{
		"term": map[string]any{field: value},
	})
	return b
}

// Sort adds a sort clause; order is "asc" or "desc".
func (b *SearchBuilder[T]) Sort(field, order string) *SearchBuilder[T] {
	b.sorts = append(b.sorts, map[string]string{field: order})
	return b
}

// Size caps the number of results.
func (b *SearchBuilder[T]) Size(n int) *SearchBuilder[T] {
	b.size = &n
	return b
}

// From sets the result offset for pagination.
func (b *SearchBuilder[T]) From(n int) *SearchBuilder[T] {
	b.from = &n
	return b
}

// MinScore drops hits scoring below the threshold.
func (b *SearchBuilder[T]) MinScore(score float64) *SearchBuilder[T] {
	b.minScore = score
	return b
}

// Do executes the search and returns typed hits.
func (b *SearchBuilder[T]) Do(ctx context.Context) ([]Hit[T], error) {
	resp, err := b.idx.client.Search(b.idx.name).Search(ctx, &SearchRequest{
		Query:    b.buildQuery(),
		Sort:     b.sorts,
		Size:     b.size,
		From:     b.from,
		MinScore: b.minScore,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return b.toHits(resp.Hits.Hits)
}

func (b *SearchBuilder[T]) buildQuery() map[string]any {
	if len(b.matches) == 0 && len(b.filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	boolQuery := map[string]any{}
	if len(b.matches) > 0 {
		boolQuery["must"] = b.matches
	}
	if len(b.filters) > 0 {
		boolQuery["filter"] = b.filters
	}
	return map[string]any{"bool": boolQuery}
}

func (b *SearchBuilder[T]) toHits(raw []SearchHit) ([]Hit[T], error) {
	hits := make([]Hit[T], len(raw))
	for i, h := range raw {
		var item T
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &item); err != nil {
				return nil, fmt.Errorf("search: decode hit %q: %w", h.ID, err)
			}
		}
		hits[i] = Hit[T]{ID: h.ID, Item: item}
		if h.Score != nil {
			hits[i].Score = *h.Score
		}
	}
	return hits, nil
}
