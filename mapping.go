package elasticsearch

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "es"

// Field types accepted in `es:"name,type"` struct tags.
var mappingFieldTypes = map[string]string{
	"id":      "keyword",
	"keyword": "keyword",
	"text":    "text",
	"long":    "long",
	"double":  "double",
	"date":    "date",
	"bool":    "boolean",
}

// mappingMeta holds parsed struct tag metadata, cached per TypedIndex.
type mappingMeta struct {
	typ reflect.Type

	// Field index in the struct carrying the document ID.
	idIdx int

	// Document field name to server mapping type, for index creation.
	properties map[string]string
}

// parseMapping reflects on T and extracts es struct tag metadata. Field
// names in the tag must match the field's JSON key, since documents are
// encoded with encoding/json.
func parseMapping[T any]() (*mappingMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", t)
	}

	meta := &mappingMeta{
		typ:        t,
		idIdx:      -1,
		properties: make(map[string]string),
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyMappingTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("no field with `es:\"...,id\"` tag in %s", t)
	}
	return meta, nil
}

// applyMappingTag processes a single struct field's es tag.
func applyMappingTag(meta *mappingMeta, idx int, f reflect.StructField, tag string) error {
	name, kind, _ := strings.Cut(tag, ",")
	if name == "" {
		// Fall back to the JSON key so the tag need not repeat it.
		name, _, _ = strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name = f.Name
		}
	}

	switch kind {
	case "":
		// Named but untyped: left to the server's dynamic mapping.
		return nil
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("duplicate id tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("id field %s must be a string", f.Name)
		}
		meta.idIdx = idx
	}

	esType, ok := mappingFieldTypes[kind]
	if !ok {
		return fmt.Errorf("unknown field type %q on field %s", kind, f.Name)
	}
	if _, dup := meta.properties[name]; dup {
		return fmt.Errorf("duplicate mapped field name %q on field %s", name, f.Name)
	}
	meta.properties[name] = esType
	return nil
}

// mappingBody builds the index creation mappings from the parsed schema.
func (m *mappingMeta) mappingBody() map[string]any {
	props := make(map[string]any, len(m.properties))
	for name, esType := range m.properties {
		props[name] = map[string]any{"type": esType}
	}
	return map[string]any{"properties": props}
}

// documentID extracts the ID field value from an item.
func (m *mappingMeta) documentID(item any) string {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v.Field(m.idIdx).String()
}
