package gemini

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// convertSchema translates a reflected JSON schema into the OpenAPI subset
// the Live API accepts for function parameters.
func convertSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	converted := &genai.Schema{
		Description: schema.Description,
		Required:    schema.Required,
	}

	switch schema.Type {
	case "object":
		converted.Type = genai.TypeObject
	case "string":
		converted.Type = genai.TypeString
	case "integer":
		converted.Type = genai.TypeInteger
	case "number":
		converted.Type = genai.TypeNumber
	case "boolean":
		converted.Type = genai.TypeBoolean
	case "array":
		converted.Type = genai.TypeArray
	default:
		return nil, fmt.Errorf("unsupported schema type %q", schema.Type)
	}

	for _, value := range schema.Enum {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("unsupported enum value %v", value)
		}
		converted.Enum = append(converted.Enum, s)
	}

	if schema.Properties != nil {
		converted.Properties = make(map[string]*genai.Schema, schema.Properties.Len())
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			property, err := convertSchema(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", pair.Key, err)
			}
			converted.Properties[pair.Key] = property
		}
	}

	if schema.Items != nil {
		items, err := convertSchema(schema.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		converted.Items = items
	}

	return converted, nil
}
