package elasticsearch

import (
	"encoding/json"
	"fmt"
)

// TermSuggestion is the term suggester result: per-token candidate
// corrections with document frequencies.
type TermSuggestion struct {
	Entries []TermSuggestEntry
}

// TermSuggestEntry holds candidates for one analyzed token.
type TermSuggestEntry struct {
	Text    string              `json:"text"`
	Offset  int                 `json:"offset"`
	Length  int                 `json:"length"`
	Options []TermSuggestOption `json:"options"`
}

// TermSuggestOption is one candidate correction.
type TermSuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int64   `json:"freq"`
}

// PhraseSuggestion is the phrase suggester result: whole-phrase
// corrections, optionally highlighted.
type PhraseSuggestion struct {
	Entries []PhraseSuggestEntry
}

// PhraseSuggestEntry holds candidates for one input phrase.
type PhraseSuggestEntry struct {
	Text    string                `json:"text"`
	Offset  int                   `json:"offset"`
	Length  int                   `json:"length"`
	Options []PhraseSuggestOption `json:"options"`
}

// PhraseSuggestOption is one candidate phrase.
type PhraseSuggestOption struct {
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	Highlighted string  `json:"highlighted,omitempty"`
}

// CompletionSuggestion is the completion suggester result: prefix
// completions with their source documents.
type CompletionSuggestion struct {
	Entries []CompletionSuggestEntry
}

// CompletionSuggestEntry holds completions for one prefix.
type CompletionSuggestEntry struct {
	Text    string                    `json:"text"`
	Offset  int                       `json:"offset"`
	Length  int                       `json:"length"`
	Options []CompletionSuggestOption `json:"options"`
}

// CompletionSuggestOption is one completion with its backing document.
type CompletionSuggestOption struct {
	Text   string          `json:"text"`
	Score  float64         `json:"_score"`
	Index  string          `json:"_index,omitempty"`
	ID     string          `json:"_id,omitempty"`
	Source json.RawMessage `json:"_source,omitempty"`
}

// builtinSuggesters returns the suggestion variant decoders shipped with
// the client.
func builtinSuggesters() []VariantEntry {
	return []VariantEntry{
		{CategorySuggestion, "term", decodeTermSuggestion},
		{CategorySuggestion, "phrase", decodePhraseSuggestion},
		{CategorySuggestion, "completion", decodeCompletionSuggestion},
	}
}

func decodeTermSuggestion(raw json.RawMessage, name string) (any, error) {
	var entries []TermSuggestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("suggestion %q: %w", name, err)
	}
	return &TermSuggestion{Entries: entries}, nil
}

func decodePhraseSuggestion(raw json.RawMessage, name string) (any, error) {
	var entries []PhraseSuggestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("suggestion %q: %w", name, err)
	}
	return &PhraseSuggestion{Entries: entries}, nil
}

func decodeCompletionSuggestion(raw json.RawMessage, name string) (any, error) {
	var entries []CompletionSuggestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("suggestion %q: %w", name, err)
	}
	return &CompletionSuggestion{Entries: entries}, nil
}
