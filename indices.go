package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/isabella232/elasticsearch/transport"
)

// IndicesService exposes index management operations.
type IndicesService struct {
	client *Client
}

// AcknowledgedResponse is the common acknowledgement envelope of index
// management calls.
type AcknowledgedResponse struct {
	Acknowledged       bool   `json:"acknowledged"`
	ShardsAcknowledged bool   `json:"shards_acknowledged,omitempty"`
	Index              string `json:"index,omitempty"`
}

func parseAcknowledged(body *bodyDecoder) (*AcknowledgedResponse, error) {
	var probe map[string]json.RawMessage
	if err := body.decode(&probe); err != nil {
		return nil, err
	}
	if _, ok := probe["acknowledged"]; !ok {
		return nil, fmt.Errorf("body is not an acknowledgement")
	}
	var resp AcknowledgedResponse
	if err := body.decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateIndexRequest creates an index, optionally with mappings and
// settings in the server's native DSL.
type CreateIndexRequest struct {
	Index    string
	Mappings any
	Settings any

	requestOptions
}

func (r *CreateIndexRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	return validationResult(verr)
}

func (r *CreateIndexRequest) toWire() (*transport.Request, error) {
	wire := &transport.Request{
		Method:   http.MethodPut,
		Path:     "/" + url.PathEscape(r.Index),
		Endpoint: "indices.create",
	}
	payload := map[string]any{}
	if r.Mappings != nil {
		payload["mappings"] = r.Mappings
	}
	if r.Settings != nil {
		payload["settings"] = r.Settings
	}
	if len(payload) > 0 {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, &DecodeError{Reason: "encode index body", Err: err}
		}
		wire.Body = body
	}
	return wire, nil
}

// Create creates an index.
func (s *IndicesService) Create(ctx context.Context, req *CreateIndexRequest) (*AcknowledgedResponse, error) {
	return perform(ctx, s.client, req, parseAcknowledged)
}

// DeleteIndexRequest removes an index.
type DeleteIndexRequest struct {
	Index string

	requestOptions
}

func (r *DeleteIndexRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	return validationResult(verr)
}

func (r *DeleteIndexRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodDelete,
		Path:     "/" + url.PathEscape(r.Index),
		Endpoint: "indices.delete",
	}, nil
}

// Delete removes an index.
func (s *IndicesService) Delete(ctx context.Context, req *DeleteIndexRequest) (*AcknowledgedResponse, error) {
	return perform(ctx, s.client, req, parseAcknowledged)
}

// ExistsIndexRequest checks for an index.
type ExistsIndexRequest struct {
	Index string

	requestOptions
}

func (r *ExistsIndexRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	return validationResult(verr)
}

func (r *ExistsIndexRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodHead,
		Path:     "/" + url.PathEscape(r.Index),
		Endpoint: "indices.exists",
	}, nil
}

// Exists reports whether the index exists.
func (s *IndicesService) Exists(ctx context.Context, req *ExistsIndexRequest) (bool, error) {
	status, err := performStatus(ctx, s.client, req, http.StatusNotFound)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

// RefreshRequest makes recent writes visible to search.
type RefreshRequest struct {
	Index string

	requestOptions
}

func (r *RefreshRequest) Validate() error {
	var verr *ValidationError
	if r.Index == "" {
		verr = addValidation(verr, "index is required")
	}
	return validationResult(verr)
}

func (r *RefreshRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/%s/_refresh", url.PathEscape(r.Index)),
		Endpoint: "indices.refresh",
	}, nil
}

// RefreshResponse reports the shards touched by a refresh.
type RefreshResponse struct {
	Shards struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	} `json:"_shards"`
}

// Refresh makes recent writes to the index visible to search.
func (s *IndicesService) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	return perform(ctx, s.client, req, func(body *bodyDecoder) (*RefreshResponse, error) {
		var probe map[string]json.RawMessage
		if err := body.decode(&probe); err != nil {
			return nil, err
		}
		if _, ok := probe["_shards"]; !ok {
			return nil, fmt.Errorf("body is not a refresh result")
		}
		var resp RefreshResponse
		if err := body.decode(&resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}
