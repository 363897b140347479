package elasticsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/isabella232/elasticsearch/transport"
)

func newTestIndex(t *testing.T, mock *mockTransport) *TypedIndex[article] {
	t.Helper()
	idx, err := NewIndex[article](newTestClient(t, mock), "articles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return idx
}

func TestSearchBuilder_EmptyIsMatchAll(t *testing.T) {
	idx := newTestIndex(t, &mockTransport{})
	query := idx.Search().buildQuery()

	want := map[string]any{"match_all": map[string]any{}}
	if !reflect.DeepEqual(query, want) {
		t.Errorf("query = %v, want %v", query, want)
	}
}

func TestSearchBuilder_QueryAndFilters(t *testing.T) {
	idx := newTestIndex(t, &mockTransport{})
	query := idx.Search().
		Query("title", "go").
		Where("tag", "books").
		Where("draft", false).
		buildQuery()

	boolQuery, ok := query["bool"].(map[string]any)
	if !ok {
		t.Fatalf("query = %v, want a bool query", query)
	}
	must, ok := boolQuery["must"].([]map[string]any)
	if !ok || len(must) != 1 {
		t.Fatalf("must = %v, want one match clause", boolQuery["must"])
	}
	filter, ok := boolQuery["filter"].([]map[string]any)
	if !ok || len(filter) != 2 {
		t.Fatalf("filter = %v, want two term clauses", boolQuery["filter"])
	}
}

func TestSearchBuilder_Do(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, req *transport.Request) (*transport.Response, error) {
			var body struct {
				Query    map[string]any      `json:"query"`
				Sort     []map[string]string `json:"sort"`
				Size     *int                `json:"size"`
				From     *int                `json:"from"`
				MinScore float64             `json:"min_score"`
			}
			if err := json.Unmarshal(req.Body, &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Size == nil || *body.Size != 5 {
				t.Errorf("size = %v, want 5", body.Size)
			}
			if body.From == nil || *body.From != 10 {
				t.Errorf("from = %v, want 10", body.From)
			}
			if body.MinScore != 0.3 {
				t.Errorf("min_score = %v, want 0.3", body.MinScore)
			}
			if len(body.Sort) != 1 || body.Sort[0]["price"] != "asc" {
				t.Errorf("sort = %v, want price asc", body.Sort)
			}
			if _, ok := body.Query["bool"]; !ok {
				t.Errorf("query = %v, want a bool query", body.Query)
			}
			return jsonResponse(http.StatusOK, `{
				"took": 2,
				"hits": {
					"total": {"value": 2, "relation": "eq"},
					"hits": [
						{"_id": "1", "_score": 1.4, "_source": {"id": "1", "title": "go in action"}},
						{"_id": "2", "_score": 0.9, "_source": {"id": "2", "title": "learning go"}}
					]
				}
			}`), nil
		},
	}
	idx := newTestIndex(t, mock)

	hits, err := idx.Search().
		Query("title", "go").
		Sort("price", "asc").
		Size(5).
		From(10).
		MinScore(0.3).
		Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID != "1" || hits[0].Score != 1.4 {
		t.Errorf("hit = %+v, want id 1 score 1.4", hits[0])
	}
	if hits[0].Item.Title != "go in action" {
		t.Errorf("item = %+v, want decoded source", hits[0].Item)
	}
}

func TestSearchBuilder_DoDecodeFailure(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusOK, `{
				"hits": {
					"total": {"value": 1, "relation": "eq"},
					"hits": [{"_id": "1", "_source": {"price": "not a number"}}]
				}
			}`), nil
		},
	}
	idx := newTestIndex(t, mock)

	if _, err := idx.Search().Do(context.Background()); err == nil {
		t.Fatal("expected error for a source that does not match the item type")
	}
}
