package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypedIndex is a generic, schema-first index handle. The index mapping
// is inferred from T's struct tags at construction time.
type TypedIndex[T any] struct {
	name   string
	client *Client
	meta   *mappingMeta
}

// NewIndex creates a typed index handle. T must be a struct with es
// tags; the mapping is parsed once and cached on the handle.
func NewIndex[T any](client *Client, name string) (*TypedIndex[T], error) {
	meta, err := parseMapping[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", name, err)
	}
	return &TypedIndex[T]{name: name, client: client, meta: meta}, nil
}

// Ensure creates the index with T's mapping if it does not exist
// (idempotent).
func (idx *TypedIndex[T]) Ensure(ctx context.Context) error {
	exists, err := idx.client.Indices().Exists(ctx, &ExistsIndexRequest{Index: idx.name})
	if err != nil {
		return fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	if exists {
		return nil
	}
	_, err = idx.client.Indices().Create(ctx, &CreateIndexRequest{
		Index:    idx.name,
		Mappings: idx.meta.mappingBody(),
	})
	if err != nil {
		return fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	return nil
}

// Upsert creates or replaces a single item under its tagged ID. Returns
// true if created.
func (idx *TypedIndex[T]) Upsert(ctx context.Context, item T) (bool, error) {
	resp, err := idx.client.Documents(idx.name).Index(ctx, &IndexRequest{
		ID:       idx.meta.documentID(item),
		Document: item,
	})
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return resp.Result == "created", nil
}

// Get retrieves a typed item by ID. A missing document is reported as
// ErrDocumentNotFound.
func (idx *TypedIndex[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	resp, err := idx.client.Documents(idx.name).Get(ctx, &GetRequest{ID: id})
	if err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}
	if !resp.Found {
		return zero, ErrDocumentNotFound
	}
	var item T
	if err := json.Unmarshal(resp.Source, &item); err != nil {
		return zero, fmt.Errorf("get: decode source: %w", err)
	}
	return item, nil
}

// Delete removes an item by ID. A missing document is reported as
// ErrDocumentNotFound.
func (idx *TypedIndex[T]) Delete(ctx context.Context, id string) error {
	resp, err := idx.client.Documents(idx.name).Delete(ctx, &DeleteRequest{ID: id})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if resp.Result == "not_found" {
		return ErrDocumentNotFound
	}
	return nil
}

// Count returns the number of items in the index.
func (idx *TypedIndex[T]) Count(ctx context.Context) (int64, error) {
	return idx.client.Search(idx.name).Count(ctx, &CountRequest{})
}

// Search returns a fluent search builder for this index.
func (idx *TypedIndex[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{idx: idx}
}
