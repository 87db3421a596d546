/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package template

import (
	"fmt"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema the import path enforces before any
// decoding happens. It pins the required top-level fields (name,
// menuTemplate, dashboardTemplates) plus the shapes of nested nodes
// and placements.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Dashboard template document",
  "type": "object",
  "required": ["name", "menuTemplate", "dashboardTemplates"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "category": {"type": "string"},
    "menuTemplate": {
      "type": "object",
      "required": ["name", "items"],
      "properties": {
        "name": {"type": "string"},
        "position": {"type": "string"},
        "version": {"type": "integer"},
        "isActive": {"type": "boolean"},
        "items": {"type": "array", "items": {"$ref": "#/definitions/menuNode"}}
      }
    },
    "dashboardTemplates": {
      "type": "array",
      "items": {"$ref": "#/definitions/canvas"}
    }
  },
  "definitions": {
    "menuNode": {
      "type": "object",
      "required": ["id", "label", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "label": {"type": "string"},
        "type": {"enum": ["dashboard_page", "group", "link", "divider", "header", "external"]},
        "order": {"type": "integer"},
        "isVisible": {"type": "boolean"},
        "isEnabled": {"type": "boolean"},
        "url": {"type": "string"},
        "icon": {"type": "string"},
        "children": {"type": "array", "items": {"$ref": "#/definitions/menuNode"}}
      }
    },
    "canvas": {
      "type": "object",
      "required": ["menuItemId", "widgets"],
      "properties": {
        "menuItemId": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "layoutConfig": {
          "type": "object",
          "properties": {
            "columns": {"type": "integer", "minimum": 1},
            "rowHeight": {"type": "integer", "minimum": 1},
            "margin": {"type": "integer", "minimum": 0},
            "containerPadding": {"type": "integer", "minimum": 0}
          }
        },
        "widgets": {"type": "array", "items": {"$ref": "#/definitions/placement"}}
      }
    },
    "placement": {
      "type": "object",
      "required": ["widgetInstanceId", "widgetDefinitionId", "position"],
      "properties": {
        "widgetInstanceId": {"type": "string", "minLength": 1},
        "widgetDefinitionId": {"type": "string", "minLength": 1},
        "order": {"type": "integer"},
        "isVisible": {"type": "boolean"},
        "config": {"type": "object"},
        "overrides": {"type": "object"},
        "position": {
          "type": "object",
          "required": ["x", "y", "width", "height"],
          "properties": {
            "x": {"type": "integer", "minimum": 0},
            "y": {"type": "integer", "minimum": 0},
            "width": {"type": "integer", "minimum": 0},
            "height": {"type": "integer", "minimum": 0}
          }
        }
      }
    }
  }
}`

// ValidateSchema checks a raw document against the JSON Schema and
// returns a single error listing every violation.
func ValidateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}
	msg := ""
	for i, desc := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += desc.String()
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, msg)
}
