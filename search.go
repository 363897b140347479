package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/isabella232/elasticsearch/transport"
)

// SearchService exposes query operations on one index.
type SearchService struct {
	client *Client
	index  string
}

// SearchRequest is one search call. Query, Aggregations, and Suggest take
// the server's native query DSL as Go values (maps or marshalable
// structs); the client does not model the request-side DSL.
type SearchRequest struct {
	Index        string
	Query        any
	Aggregations map[string]any
	Suggest      map[string]any
	Sort         []map[string]string
	Size         *int
	From         *int
	MinScore     float64
	Source       []string
	Timeout      time.Duration

	requestOptions
}

func (r *SearchRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.Size != nil && *r.Size < 0 {
		verr = addValidation(verr, "size must not be negative")
	}
	if r.From != nil && *r.From < 0 {
		verr = addValidation(verr, "from must not be negative")
	}
	return validationResult(verr)
}

func (r *SearchRequest) toWire() (*transport.Request, error) {
	payload := map[string]any{}
	if r.Query != nil {
		payload["query"] = r.Query
	}
	if len(r.Aggregations) > 0 {
		payload["aggs"] = r.Aggregations
	}
	if len(r.Suggest) > 0 {
		payload["suggest"] = r.Suggest
	}
	if len(r.Sort) > 0 {
		payload["sort"] = r.Sort
	}
	if r.Size != nil {
		payload["size"] = *r.Size
	}
	if r.From != nil {
		payload["from"] = *r.From
	}
	if r.MinScore > 0 {
		payload["min_score"] = r.MinScore
	}
	if len(r.Source) > 0 {
		payload["_source"] = r.Source
	}
	if r.Timeout > 0 {
		payload["timeout"] = r.Timeout.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &DecodeError{Reason: "encode search body", Err: err}
	}

	// typed_keys makes the server prefix aggregation and suggest names
	// with their variant, which is what the registry dispatches on.
	return &transport.Request{
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/%s/_search", url.PathEscape(r.Index)),
		Params:   url.Values{"typed_keys": []string{"true"}},
		Body:     body,
		Endpoint: "search",
	}, nil
}

// TotalHits is the total hit count with its counting relation.
type TotalHits struct {
	Value int64 `json:"value"`
	// Relation is "eq" for an exact count, "gte" for a lower bound.
	Relation string `json:"relation"`
}

// SearchHit is one matching document.
type SearchHit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// SearchHits is the hits section of a search response.
type SearchHits struct {
	Total    TotalHits   `json:"total"`
	MaxScore *float64    `json:"max_score"`
	Hits     []SearchHit `json:"hits"`
}

// SearchResponse is one decoded search result. Aggregations and Suggest
// hold registry-decoded values keyed by the caller's names: for example
// a "terms" aggregation named "by_tag" appears as
// Aggregations["by_tag"].(*TermsAggregation).
type SearchResponse struct {
	Took         int64          `json:"took"`
	TimedOut     bool           `json:"timed_out"`
	Hits         SearchHits     `json:"hits"`
	Aggregations map[string]any `json:"-"`
	Suggest      map[string]any `json:"-"`
}

func parseSearchResponse(body *bodyDecoder) (*SearchResponse, error) {
	var shape struct {
		Took         int64                      `json:"took"`
		TimedOut     bool                       `json:"timed_out"`
		Hits         *SearchHits                `json:"hits"`
		Aggregations RawAggregations            `json:"aggregations"`
		Suggest      map[string]json.RawMessage `json:"suggest"`
	}
	if err := body.decode(&shape); err != nil {
		return nil, err
	}
	if shape.Hits == nil {
		return nil, fmt.Errorf("body is not a search result")
	}

	resp := &SearchResponse{
		Took:     shape.Took,
		TimedOut: shape.TimedOut,
		Hits:     *shape.Hits,
	}
	var err error
	if resp.Aggregations, err = body.aggregations(shape.Aggregations); err != nil {
		return nil, err
	}
	if resp.Suggest, err = body.suggestions(shape.Suggest); err != nil {
		return nil, err
	}
	return resp, nil
}

// Search runs one query and decodes hits, aggregations, and suggestions.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	req.Index = s.index
	return perform(ctx, s.client, req, parseSearchResponse)
}

// SearchAsync runs the query without blocking. cb is invoked exactly
// once, on the transport's completion goroutine, with either the decoded
// response or a terminal error. Cancel via ctx.
func (s *SearchService) SearchAsync(ctx context.Context, req *SearchRequest, cb func(*SearchResponse, error)) {
	req.Index = s.index
	performAsync(ctx, s.client, req, parseSearchResponse, cb)
}

// CountRequest counts documents matching a query.
type CountRequest struct {
	Index string
	// Query is optional; a nil query counts all documents.
	Query any

	requestOptions
}

func (r *CountRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	return validationResult(verr)
}

func (r *CountRequest) toWire() (*transport.Request, error) {
	wire := &transport.Request{
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/%s/_count", url.PathEscape(r.Index)),
		Endpoint: "count",
	}
	if r.Query != nil {
		body, err := json.Marshal(map[string]any{"query": r.Query})
		if err != nil {
			return nil, &DecodeError{Reason: "encode count body", Err: err}
		}
		wire.Body = body
	}
	return wire, nil
}

// CountResponse is the matching document count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Count returns the number of documents matching the query.
func (s *SearchService) Count(ctx context.Context, req *CountRequest) (int64, error) {
	req.Index = s.index
	resp, err := perform(ctx, s.client, req, func(body *bodyDecoder) (*CountResponse, error) {
		var probe map[string]json.RawMessage
		if err := body.decode(&probe); err != nil {
			return nil, err
		}
		if _, ok := probe["count"]; !ok {
			return nil, fmt.Errorf("body is not a count result")
		}
		var out CountResponse
		if err := body.decode(&out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}
