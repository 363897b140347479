// Package elasticsearch is a typed client for a document search and
// analytics service. It layers request validation, content negotiation,
// registry-based decoding of polymorphic responses, and error
// translation on top of a plain HTTP transport.
//
// The untyped surface speaks the server's request DSL directly:
//
//	client, err := elasticsearch.New(elasticsearch.WithAddress("http://localhost:9200"))
//	resp, err := client.Search("articles").Search(ctx, &elasticsearch.SearchRequest{
//		Query: map[string]any{"match": map[string]any{"title": "go"}},
//	})
//
// The typed surface maps a struct with es tags onto an index:
//
//	type Article struct {
//		ID    string `json:"id" es:"id,id"`
//		Title string `json:"title" es:"title,text"`
//		Tags  string `json:"tags" es:"tags,keyword"`
//	}
//
//	idx, err := elasticsearch.NewIndex[Article](client, "articles")
//	hits, err := idx.Search().Query("title", "go").Size(5).Do(ctx)
//
// Failures are typed: *ValidationError before any network activity,
// *DecodeError for protocol mismatches, *ServerError for failure
// statuses, and *ConfigurationError at construction.
package elasticsearch
