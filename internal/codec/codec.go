// Package codec selects and applies a body codec based on the declared
// content type of a wire response. Negotiation never touches the body:
// a codec is chosen from headers alone so that a failed negotiation
// leaves the stream untouched.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingContentType signals a response without a Content-Type header.
	ErrMissingContentType = errors.New("missing Content-Type header")
	// ErrUnsupportedContentType signals a media type no codec understands.
	ErrUnsupportedContentType = errors.New("unsupported Content-Type")
)

// Codec normalizes and decodes response bodies for one media type.
// Every codec normalizes to canonical JSON so variant decoders and
// response structs see a single tree format regardless of wire encoding.
type Codec interface {
	// MediaType returns the canonical media type the codec handles.
	MediaType() string
	// Normalize converts body bytes into canonical JSON bytes.
	Normalize(data []byte) (json.RawMessage, error)
	// Decode parses body bytes into v (v uses json struct tags).
	Decode(data []byte, v any) error
	// Encode serializes v in the codec's media type.
	Encode(v any) ([]byte, error)
}

// Negotiate picks a codec for the given Content-Type header value.
// An empty value or an unparseable/unknown media type is an error;
// the caller maps it into its decode-error taxonomy.
func Negotiate(contentType string) (Codec, error) {
	if contentType == "" {
		return nil, ErrMissingContentType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	switch {
	case mediaType == "application/json",
		strings.HasSuffix(mediaType, "+json"):
		return JSON{}, nil
	case mediaType == "application/yaml",
		mediaType == "application/x-yaml",
		mediaType == "text/yaml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, mediaType)
	}
}

// JSON is the application/json codec.
type JSON struct{}

// MediaType returns "application/json".
func (JSON) MediaType() string { return "application/json" }

// Normalize validates that data is well-formed JSON and returns it as is.
func (JSON) Normalize(data []byte) (json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode json: invalid document")
	}
	return json.RawMessage(data), nil
}

// Decode parses JSON into v.
func (JSON) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// Encode serializes v as JSON.
func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

// YAML is the application/yaml codec. Documents are round-tripped
// through JSON so map keys, numbers, and struct tags match the JSON
// codec's behavior.
type YAML struct{}

// MediaType returns "application/yaml".
func (YAML) MediaType() string { return "application/yaml" }

// Normalize converts a YAML document into canonical JSON bytes.
func (YAML) Normalize(data []byte) (json.RawMessage, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	jsonData, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("normalize yaml: %w", err)
	}
	return json.RawMessage(jsonData), nil
}

// Decode parses YAML into v via JSON normalization.
func (y YAML) Decode(data []byte, v any) error {
	jsonData, err := y.Normalize(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, v); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Encode serializes v as YAML. The value is routed through its JSON
// form first so field names follow json struct tags, mirroring Decode.
func (YAML) Encode(v any) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var tree any
	if err := json.Unmarshal(jsonData, &tree); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return data, nil
}
