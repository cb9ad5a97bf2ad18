// ABOUTME: JSON Schema compilation and argument normalization for tools.
// ABOUTME: Coerces numeric strings and fills declared defaults before validating.

package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled tool input schema. It keeps the raw property map
// alongside the compiled form so arguments can be normalized before
// validation.
type Schema struct {
	compiled   *jsonschema.Schema
	properties map[string]any
}

// CompileSchema compiles a raw JSON Schema document.
func CompileSchema(raw json.RawMessage) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	s := &Schema{compiled: compiled}
	if m, ok := doc.(map[string]any); ok {
		if props, ok := m["properties"].(map[string]any); ok {
			s.properties = props
		}
	}
	return s, nil
}

// Normalize coerces and validates args against the schema. Model-produced
// arguments often carry numbers as strings; those are converted when the
// schema declares a numeric type. Missing properties with a declared
// default are filled in. The normalized document is returned on success.
func (s *Schema) Normalize(args json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(args))
	if err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}

	if obj, ok := value.(map[string]any); ok {
		normalizeObject(obj, s.properties)
		value = obj
	}

	if err := s.compiled.Validate(value); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("re-encoding arguments: %w", err)
	}
	return normalized, nil
}

// normalizeObject coerces and defaults an object's members in place,
// recursing through declared arrays and nested objects.
func normalizeObject(obj map[string]any, properties map[string]any) {
	for name, rawProp := range properties {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		if got, present := obj[name]; present {
			obj[name] = coerceValue(got, prop)
		} else if def, hasDefault := prop["default"]; hasDefault {
			obj[name] = def
		}
	}
}

// coerceValue converts string-typed values into the type the schema
// declares, when the conversion is unambiguous.
func coerceValue(value any, prop map[string]any) any {
	typ, _ := prop["type"].(string)

	switch typ {
	case "array":
		items, ok := value.([]any)
		if !ok {
			return value
		}
		itemProp, ok := prop["items"].(map[string]any)
		if !ok {
			return value
		}
		for i, item := range items {
			items[i] = coerceValue(item, itemProp)
		}
		return items
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return value
		}
		if props, ok := prop["properties"].(map[string]any); ok {
			normalizeObject(obj, props)
		}
		return obj
	}

	str, isStr := value.(string)
	if !isStr {
		return value
	}
	switch typ {
	case "number", "integer":
		if n, err := strconv.ParseFloat(str, 64); err == nil {
			if typ == "integer" && n == float64(int64(n)) {
				return json.Number(strconv.FormatInt(int64(n), 10))
			}
			return json.Number(str)
		}
	case "boolean":
		if b, err := strconv.ParseBool(str); err == nil {
			return b
		}
	}
	return value
}
