package elasticsearch

import (
	"context"
	"net/http"
	"testing"

	"github.com/isabella232/elasticsearch/transport"
)

func TestSearch_DecodesTypedSuggestions(t *testing.T) {
	body := `{
		"hits": {"total": {"value": 0, "relation": "eq"}, "hits": []},
		"suggest": {
			"term#spelling": [
				{
					"text": "elasticsaerch",
					"offset": 0,
					"length": 13,
					"options": [{"text": "elasticsearch", "score": 0.8, "freq": 12}]
				}
			],
			"completion#titles": [
				{
					"text": "go",
					"offset": 0,
					"length": 2,
					"options": [{"text": "go in action", "_score": 1.0, "_id": "7"}]
				}
			]
		}
	}`
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusOK, body), nil
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.Search("articles").Search(context.Background(), &SearchRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	term, ok := resp.Suggest["spelling"].(*TermSuggestion)
	if !ok {
		t.Fatalf("spelling = %T, want *TermSuggestion", resp.Suggest["spelling"])
	}
	if len(term.Entries) != 1 || len(term.Entries[0].Options) != 1 {
		t.Fatalf("entries = %+v, want one entry with one option", term.Entries)
	}
	opt := term.Entries[0].Options[0]
	if opt.Text != "elasticsearch" || opt.Freq != 12 {
		t.Errorf("option = %+v, want the corrected term with freq 12", opt)
	}

	completion, ok := resp.Suggest["titles"].(*CompletionSuggestion)
	if !ok {
		t.Fatalf("titles = %T, want *CompletionSuggestion", resp.Suggest["titles"])
	}
	if completion.Entries[0].Options[0].ID != "7" {
		t.Errorf("completion id = %q, want 7", completion.Entries[0].Options[0].ID)
	}
}

func TestDecodePhraseSuggestion_Highlighted(t *testing.T) {
	raw := []byte(`[
		{
			"text": "quick broen fox",
			"offset": 0,
			"length": 15,
			"options": [
				{"text": "quick brown fox", "score": 0.9, "highlighted": "quick <em>brown</em> fox"}
			]
		}
	]`)
	v, err := decodePhraseSuggestion(raw, "phrases")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := v.(*PhraseSuggestion)
	if s.Entries[0].Options[0].Highlighted == "" {
		t.Error("expected the highlighted form to survive decoding")
	}
}

func TestDecodeTermSuggestion_Malformed(t *testing.T) {
	if _, err := decodeTermSuggestion([]byte(`{"not":"an array"}`), "spelling"); err == nil {
		t.Fatal("expected error for a non-array payload")
	}
}
