package server

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// paramToMCPOption declares a path or query parameter with its scalar type.
func paramToMCPOption(name, description string, schema *openapi3.SchemaRef, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description(description)}
	if required {
		opts = append(opts, mcp.Required())
	}
	if schema == nil || schema.Value == nil || schema.Value.Type == nil {
		return mcp.WithString(name, opts...)
	}

	switch {
	case schema.Value.Type.Includes(openapi3.TypeNumber) || schema.Value.Type.Includes(openapi3.TypeInteger):
		return createNumberOption(schema, name, opts)
	case schema.Value.Type.Includes(openapi3.TypeBoolean):
		return mcp.WithBoolean(name, opts...)
	case schema.Value.Type.Includes(openapi3.TypeArray):
		return createArrayOption(schema, name, opts)
	default:
		return createStringOption(schema, name, opts)
	}
}

// schemaToMCPOption converts a request body schema to an MCP tool option
func schemaToMCPOption(schema *openapi3.SchemaRef, name string, required bool) mcp.ToolOption {
	if schema == nil || schema.Value == nil || schema.Value.Type == nil {
		if required {
			return mcp.WithObject(name, mcp.Description("Request body"), mcp.Required())
		}
		return mcp.WithObject(name, mcp.Description("Request body"))
	}

	// The object schema's own "required" list shares the key mcp.Required
	// uses, so the tool-level flag is applied after the option instead.
	baseOpts := []mcp.PropertyOption{mcp.Description(schema.Value.Description)}

	var opt mcp.ToolOption
	switch {
	case schema.Value.Type.Includes(openapi3.TypeArray):
		opt = createArrayOption(schema, name, baseOpts)
	case schema.Value.Type.Includes(openapi3.TypeObject):
		opt = createObjectOption(schema, name, baseOpts)
	case schema.Value.Type.Includes(openapi3.TypeString):
		opt = createStringOption(schema, name, baseOpts)
	case schema.Value.Type.Includes(openapi3.TypeNumber) || schema.Value.Type.Includes(openapi3.TypeInteger):
		opt = createNumberOption(schema, name, baseOpts)
	case schema.Value.Type.Includes(openapi3.TypeBoolean):
		opt = mcp.WithBoolean(name, baseOpts...)
	default:
		opt = mcp.WithObject(name, mcp.Description(fmt.Sprintf(
			"%s (unknown type: %v)", schema.Value.Description, schema.Value.Type.Slice(),
		)))
	}
	return markRequired(opt, name, required)
}

func markRequired(opt mcp.ToolOption, name string, required bool) mcp.ToolOption {
	if !required {
		return opt
	}
	return func(t *mcp.Tool) {
		opt(t)
		t.InputSchema.Required = append(t.InputSchema.Required, name)
	}
}

func createArrayOption(schema *openapi3.SchemaRef, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	arrayOpts := baseOpts
	if schema.Value.Items != nil {
		arrayOpts = append(arrayOpts, mcp.Items(schema.Value.Items))
	}
	return mcp.WithArray(name, arrayOpts...)
}

func createObjectOption(schema *openapi3.SchemaRef, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	objOpts := baseOpts
	if len(schema.Value.Properties) > 0 {
		props := make(map[string]any, len(schema.Value.Properties))
		for propName, propSchema := range schema.Value.Properties {
			props[propName] = propertySchema(propSchema)
		}
		objOpts = append(objOpts, mcp.Properties(props))
	}

	if schema.Value.MaxProps != nil {
		objOpts = append(objOpts, mcp.MaxProperties(int(*schema.Value.MaxProps)))
	}
	if schema.Value.MinProps != 0 {
		objOpts = append(objOpts, mcp.MinProperties(int(schema.Value.MinProps)))
	}
	if has := schema.Value.AdditionalProperties.Has; has != nil && *has {
		if schema.Value.AdditionalProperties.Schema != nil {
			objOpts = append(objOpts, mcp.AdditionalProperties(schema.Value.AdditionalProperties.Schema))
		} else {
			objOpts = append(objOpts, mcp.AdditionalProperties(true))
		}
	}

	if len(schema.Value.Required) > 0 {
		objOpts = append(objOpts, func(m map[string]any) {
			m["required"] = schema.Value.Required
		})
	}

	return mcp.WithObject(name, objOpts...)
}

// propertySchema renders one object property as a JSON schema fragment.
func propertySchema(ref *openapi3.SchemaRef) map[string]any {
	prop := make(map[string]any)
	if ref == nil || ref.Value == nil {
		return prop
	}
	s := ref.Value
	if s.Description != "" {
		prop["description"] = s.Description
	}
	if s.Type == nil || len(s.Type.Slice()) == 0 {
		return prop
	}
	prop["type"] = s.Type.Slice()[0]

	switch {
	case s.Type.Includes(openapi3.TypeString):
		if s.MaxLength != nil {
			prop["maxLength"] = *s.MaxLength
		}
		if s.MinLength != 0 {
			prop["minLength"] = s.MinLength
		}
		if s.Pattern != "" {
			prop["pattern"] = s.Pattern
		}
		if len(s.Enum) > 0 {
			prop["enum"] = s.Enum
		}
	case s.Type.Includes(openapi3.TypeNumber) || s.Type.Includes(openapi3.TypeInteger):
		if s.Max != nil {
			prop["maximum"] = *s.Max
		}
		if s.Min != nil {
			prop["minimum"] = *s.Min
		}
		if s.MultipleOf != nil {
			prop["multipleOf"] = *s.MultipleOf
		}
	}
	return prop
}

func createStringOption(schema *openapi3.SchemaRef, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	stringOpts := baseOpts
	if len(schema.Value.Enum) > 0 {
		enumValues := make([]string, 0, len(schema.Value.Enum))
		for _, val := range schema.Value.Enum {
			if strVal, ok := val.(string); ok {
				enumValues = append(enumValues, strVal)
			}
		}
		if len(enumValues) > 0 {
			stringOpts = append(stringOpts, mcp.Enum(enumValues...))
		}
	}
	if schema.Value.MaxLength != nil {
		stringOpts = append(stringOpts, mcp.MaxLength(int(*schema.Value.MaxLength)))
	}
	if schema.Value.MinLength != 0 {
		stringOpts = append(stringOpts, mcp.MinLength(int(schema.Value.MinLength)))
	}
	if schema.Value.Pattern != "" {
		stringOpts = append(stringOpts, mcp.Pattern(schema.Value.Pattern))
	}
	return mcp.WithString(name, stringOpts...)
}

func createNumberOption(schema *openapi3.SchemaRef, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	numberOpts := baseOpts
	if schema.Value.Max != nil {
		numberOpts = append(numberOpts, mcp.Max(*schema.Value.Max))
	}
	if schema.Value.Min != nil {
		numberOpts = append(numberOpts, mcp.Min(*schema.Value.Min))
	}
	if schema.Value.MultipleOf != nil {
		numberOpts = append(numberOpts, mcp.MultipleOf(*schema.Value.MultipleOf))
	}
	return mcp.WithNumber(name, numberOpts...)
}
