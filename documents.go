package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/isabella232/elasticsearch/internal/cache"
	"github.com/isabella232/elasticsearch/transport"
)

// DocumentsService exposes single-document operations on one index.
type DocumentsService struct {
	client *Client
	index  string
}

// GetRequest fetches one document by ID.
type GetRequest struct {
	Index string
	ID    string

	requestOptions
}

// Validate reports every violation at once.
func (r *GetRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.ID == "" {
		verr = addValidation(verr, "id is required")
	}
	return validationResult(verr)
}

func (r *GetRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodGet,
		Path:     fmt.Sprintf("/%s/_doc/%s", url.PathEscape(r.Index), url.PathEscape(r.ID)),
		Endpoint: "doc.get",
	}, nil
}

// GetResponse is the document fetch result. Found is false when the
// server answered 404 with a structured not-found body.
type GetResponse struct {
	Index       string          `json:"_index"`
	ID          string          `json:"_id"`
	Version     int64           `json:"_version,omitempty"`
	SeqNo       int64           `json:"_seq_no,omitempty"`
	PrimaryTerm int64           `json:"_primary_term,omitempty"`
	Found       bool            `json:"found"`
	Source      json.RawMessage `json:"_source,omitempty"`
}

// Get fetches a document. A 404 with a structured body decodes into a
// GetResponse with Found == false instead of failing; a 404 whose body
// does not match the document shape is still a *ServerError. When a
// document cache is configured, found documents are served from and
// written through it.
func (s *DocumentsService) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	req.Index = s.index

	if s.client.docCache != nil && req.ID != "" {
		if resp, ok := s.cacheGet(ctx, req.ID); ok {
			return resp, nil
		}
	}

	resp, err := perform(ctx, s.client, req, parseGetResponse, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if s.client.docCache != nil && resp.Found {
		s.cacheSet(ctx, req.ID, resp)
	}
	return resp, nil
}

// parseGetResponse requires the "found" discriminator so that a 404
// error envelope does not satisfy the success shape during the
// ignore-status fallback.
func parseGetResponse(body *bodyDecoder) (*GetResponse, error) {
	var probe map[string]json.RawMessage
	if err := body.decode(&probe); err != nil {
		return nil, err
	}
	if _, ok := probe["found"]; !ok {
		return nil, fmt.Errorf("body is not a document get result")
	}
	var resp GetResponse
	if err := body.decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExistsRequest checks for a document without fetching its source.
type ExistsRequest struct {
	Index string
	ID    string

	requestOptions
}

func (r *ExistsRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.ID == "" {
		verr = addValidation(verr, "id is required")
	}
	return validationResult(verr)
}

func (r *ExistsRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodHead,
		Path:     fmt.Sprintf("/%s/_doc/%s", url.PathEscape(r.Index), url.PathEscape(r.ID)),
		Endpoint: "doc.exists",
	}, nil
}

// Exists reports whether the document exists.
func (s *DocumentsService) Exists(ctx context.Context, req *ExistsRequest) (bool, error) {
	req.Index = s.index
	status, err := performStatus(ctx, s.client, req, http.StatusNotFound)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

// IndexRequest stores a document. With an ID the document is created or
// replaced at that ID; without one the server assigns an ID.
type IndexRequest struct {
	Index    string
	ID       string
	Document any
	// Refresh controls visibility: "", "true", "wait_for", "false".
	Refresh string

	requestOptions
}

func (r *IndexRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.Document == nil {
		verr = addValidation(verr, "document is required")
	}
	return validationResult(verr)
}

func (r *IndexRequest) toWire() (*transport.Request, error) {
	body, err := json.Marshal(r.Document)
	if err != nil {
		return nil, &DecodeError{Reason: "encode document", Err: err}
	}

	wire := &transport.Request{
		Body:     body,
		Endpoint: "doc.index",
	}
	if r.ID != "" {
		wire.Method = http.MethodPut
		wire.Path = fmt.Sprintf("/%s/_doc/%s", url.PathEscape(r.Index), url.PathEscape(r.ID))
	} else {
		wire.Method = http.MethodPost
		wire.Path = fmt.Sprintf("/%s/_doc", url.PathEscape(r.Index))
	}
	if r.Refresh != "" {
		wire.Params = url.Values{"refresh": []string{r.Refresh}}
	}
	return wire, nil
}

// WriteResponse is the result of an index, update, or delete.
type WriteResponse struct {
	Index       string `json:"_index"`
	ID          string `json:"_id"`
	Version     int64  `json:"_version"`
	Result      string `json:"result"` // "created", "updated", "deleted", "not_found", "noop"
	SeqNo       int64  `json:"_seq_no"`
	PrimaryTerm int64  `json:"_primary_term"`
}

// parseWriteResponse requires the "result" discriminator, for the same
// reason parseGetResponse requires "found".
func parseWriteResponse(body *bodyDecoder) (*WriteResponse, error) {
	var probe map[string]json.RawMessage
	if err := body.decode(&probe); err != nil {
		return nil, err
	}
	if _, ok := probe["result"]; !ok {
		return nil, fmt.Errorf("body is not a document write result")
	}
	var resp WriteResponse
	if err := body.decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Index stores a document and invalidates its cache entry.
func (s *DocumentsService) Index(ctx context.Context, req *IndexRequest) (*WriteResponse, error) {
	req.Index = s.index
	resp, err := perform(ctx, s.client, req, parseWriteResponse)
	if err != nil {
		return nil, err
	}
	s.cacheDel(ctx, resp.ID)
	return resp, nil
}

// UpdateRequest applies a partial document update.
type UpdateRequest struct {
	Index string
	ID    string
	// Doc is the partial document merged into the stored one.
	Doc any
	// Upsert, when true, indexes Doc as a new document if none exists.
	Upsert  bool
	Refresh string

	requestOptions
}

func (r *UpdateRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.ID == "" {
		verr = addValidation(verr, "id is required")
	}
	if r.Doc == nil {
		verr = addValidation(verr, "doc is required")
	}
	return validationResult(verr)
}

func (r *UpdateRequest) toWire() (*transport.Request, error) {
	payload := map[string]any{"doc": r.Doc}
	if r.Upsert {
		payload["doc_as_upsert"] = true
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &DecodeError{Reason: "encode partial document", Err: err}
	}

	wire := &transport.Request{
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/%s/_update/%s", url.PathEscape(r.Index), url.PathEscape(r.ID)),
		Body:     body,
		Endpoint: "doc.update",
	}
	if r.Refresh != "" {
		wire.Params = url.Values{"refresh": []string{r.Refresh}}
	}
	return wire, nil
}

// Update applies a partial update and invalidates the cache entry.
func (s *DocumentsService) Update(ctx context.Context, req *UpdateRequest) (*WriteResponse, error) {
	req.Index = s.index
	resp, err := perform(ctx, s.client, req, parseWriteResponse)
	if err != nil {
		return nil, err
	}
	s.cacheDel(ctx, req.ID)
	return resp, nil
}

// DeleteRequest removes one document by ID.
type DeleteRequest struct {
	Index   string
	ID      string
	Refresh string

	requestOptions
}

func (r *DeleteRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	if r.ID == "" {
		verr = addValidation(verr, "id is required")
	}
	return validationResult(verr)
}

func (r *DeleteRequest) toWire() (*transport.Request, error) {
	wire := &transport.Request{
		Method:   http.MethodDelete,
		Path:     fmt.Sprintf("/%s/_doc/%s", url.PathEscape(r.Index), url.PathEscape(r.ID)),
		Endpoint: "doc.delete",
	}
	if r.Refresh != "" {
		wire.Params = url.Values{"refresh": []string{r.Refresh}}
	}
	return wire, nil
}

// Delete removes a document. Deleting a missing document returns a
// WriteResponse with Result == "not_found" instead of failing.
func (s *DocumentsService) Delete(ctx context.Context, req *DeleteRequest) (*WriteResponse, error) {
	req.Index = s.index
	resp, err := perform(ctx, s.client, req, parseWriteResponse, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	s.cacheDel(ctx, req.ID)
	return resp, nil
}

func (s *DocumentsService) cacheKey(id string) string {
	return fmt.Sprintf("esdoc:%s:%s", s.index, id)
}

func (s *DocumentsService) cacheGet(ctx context.Context, id string) (*GetResponse, bool) {
	data, err := s.client.docCache.Get(ctx, s.cacheKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			s.client.logger.Warn("document cache get failed",
				zap.String("index", s.index), zap.Error(err))
		}
		s.observeCache("miss")
		return nil, false
	}
	var resp GetResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.observeCache("miss")
		return nil, false
	}
	s.observeCache("hit")
	return &resp, true
}

func (s *DocumentsService) cacheSet(ctx context.Context, id string, resp *GetResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.client.docCache.Set(ctx, s.cacheKey(id), data); err != nil {
		s.client.logger.Warn("document cache set failed",
			zap.String("index", s.index), zap.Error(err))
	}
}

func (s *DocumentsService) cacheDel(ctx context.Context, id string) {
	if s.client.docCache == nil || id == "" {
		return
	}
	if err := s.client.docCache.Del(ctx, s.cacheKey(id)); err != nil {
		s.client.logger.Warn("document cache delete failed",
			zap.String("index", s.index), zap.Error(err))
	}
}

func (s *DocumentsService) observeCache(result string) {
	if s.client.metrics == nil {
		return
	}
	s.client.metrics.CacheTotal.WithLabelValues(result).Inc()
}
