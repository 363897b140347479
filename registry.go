package elasticsearch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variant categories shipped with the client. Plugin and caller entries
// may introduce further categories.
const (
	// CategoryAggregation tags aggregation result variants.
	CategoryAggregation = "aggregation"
	// CategorySuggestion tags suggestion result variants.
	CategorySuggestion = "suggestion"
)

// VariantDecoder decodes one named variant of a polymorphic response
// subtree. raw is the canonical-JSON subtree; name is the contextual
// name the server attached to it (the part after '#' in a typed key).
type VariantDecoder func(raw json.RawMessage, name string) (any, error)

// VariantEntry registers a decoder under a (category, name) key.
// Entries are supplied as plain lists; no entry source performs I/O or
// discovery.
type VariantEntry struct {
	Category string
	Name     string
	Decode   VariantDecoder
}

type variantKey struct {
	category string
	name     string
}

// variantRegistry is the immutable (category, name) decoder table,
// assembled once at client construction and read-only thereafter.
type variantRegistry struct {
	entries map[variantKey]VariantDecoder
}

// newVariantRegistry merges entry sources in order. Every key must be
// unique across the union of all sources; the first duplicate fails
// construction with a ConfigurationError naming the key. Because the
// source order is fixed (built-in, plugin, caller), detection is
// deterministic no matter which source contributed the colliding entry.
func newVariantRegistry(sources ...[]VariantEntry) (*variantRegistry, error) {
	entries := make(map[variantKey]VariantDecoder)
	for _, source := range sources {
		for _, e := range source {
			if e.Category == "" || e.Name == "" {
				return nil, &ConfigurationError{
					Reason: fmt.Sprintf("variant entry (%q, %q) has an empty key component", e.Category, e.Name),
				}
			}
			if e.Decode == nil {
				return nil, &ConfigurationError{
					Reason: fmt.Sprintf("variant entry (%q, %q) has a nil decoder", e.Category, e.Name),
				}
			}
			key := variantKey{category: e.Category, name: e.Name}
			if _, dup := entries[key]; dup {
				return nil, &ConfigurationError{
					Reason: fmt.Sprintf("duplicate variant decoder for (%q, %q)", e.Category, e.Name),
				}
			}
			entries[key] = e.Decode
		}
	}
	return &variantRegistry{entries: entries}, nil
}

// resolve returns the decoder for (category, name). Absence is a decode
// error, not a silent default: an unrecognized variant name means either
// client/server version skew or a missing registration, and the caller
// must be told rather than handed a guessed value.
func (r *variantRegistry) resolve(category, name string) (VariantDecoder, error) {
	decode, ok := r.entries[variantKey{category: category, name: name}]
	if !ok {
		return nil, &DecodeError{
			Reason: fmt.Sprintf("no registered decoder for %s variant %q", category, name),
		}
	}
	return decode, nil
}

// decodeTyped decodes a typed-keys object, keyed "variant#name", into a
// map of name to decoded value using the registry.
func (r *variantRegistry) decodeTyped(category string, raw map[string]json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for key, subtree := range raw {
		variant, name, ok := strings.Cut(key, "#")
		if !ok {
			return nil, &DecodeError{
				Reason: fmt.Sprintf("%s key %q is not in typed \"variant#name\" form", category, key),
			}
		}
		decode, err := r.resolve(category, variant)
		if err != nil {
			return nil, err
		}
		value, err := decode(subtree, name)
		if err != nil {
			return nil, &DecodeError{
				Reason: fmt.Sprintf("decode %s variant %q for %q", category, variant, name),
				Err:    err,
			}
		}
		out[name] = value
	}
	return out, nil
}
