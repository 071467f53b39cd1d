package viz

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// vizSpecSchemaJSON is the structural twin of the VizSpec Go types,
// grounded on the exact field shapes in the reference implementation's
// Pydantic models (spec.py): the discriminated chart union, the
// sort/limit/filter transform union, and the result-file pattern.
const vizSpecSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "data", "chart"],
  "properties": {
    "version": {"const": "1"},
    "title": {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "data": {
      "type": "object",
      "required": ["source"],
      "properties": {
        "source": {
          "type": "object",
          "required": ["file"],
          "properties": {
            "file": {"type": "string", "pattern": "^result_[A-Za-z0-9._-]+\\.json$"}
          }
        }
      }
    },
    "chart": {
      "oneOf": [
        {"$ref": "#/$defs/bar"},
        {"$ref": "#/$defs/line"},
        {"$ref": "#/$defs/scatter"},
        {"$ref": "#/$defs/boxplot"},
        {"$ref": "#/$defs/histogram"}
      ]
    },
    "transform": {
      "type": "array",
      "items": {
        "oneOf": [
          {"$ref": "#/$defs/sortTransform"},
          {"$ref": "#/$defs/limitTransform"},
          {"$ref": "#/$defs/filterTransform"}
        ]
      }
    }
  },
  "$defs": {
    "fieldEncoding": {
      "type": "object",
      "required": ["field"],
      "properties": {
        "field": {"type": "string"},
        "type": {"enum": ["category", "number", "time"]}
      }
    },
    "chartOptions": {
      "type": "object",
      "properties": {
        "width": {"type": ["integer", "null"], "minimum": 20, "maximum": 200},
        "height": {"type": ["integer", "null"], "minimum": 10, "maximum": 100},
        "x_label": {"type": ["string", "null"]},
        "y_label": {"type": ["string", "null"]},
        "color": {"type": ["string", "null"]},
        "marker": {"type": ["string", "null"]}
      }
    },
    "xyEncoding": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"$ref": "#/$defs/fieldEncoding"},
        "y": {"$ref": "#/$defs/fieldEncoding"},
        "series": {"$ref": "#/$defs/fieldEncoding"}
      }
    },
    "bar": {
      "type": "object",
      "required": ["type", "encoding"],
      "properties": {
        "type": {"const": "bar"},
        "encoding": {"$ref": "#/$defs/xyEncoding"},
        "orientation": {"enum": ["vertical", "horizontal"]},
        "mode": {"enum": ["grouped", "stacked"]},
        "options": {"$ref": "#/$defs/chartOptions"}
      }
    },
    "line": {
      "type": "object",
      "required": ["type", "encoding"],
      "properties": {
        "type": {"const": "line"},
        "encoding": {"$ref": "#/$defs/xyEncoding"},
        "options": {"$ref": "#/$defs/chartOptions"}
      }
    },
    "scatter": {
      "type": "object",
      "required": ["type", "encoding"],
      "properties": {
        "type": {"const": "scatter"},
        "encoding": {"$ref": "#/$defs/xyEncoding"},
        "options": {"$ref": "#/$defs/chartOptions"}
      }
    },
    "boxplot": {
      "type": "object",
      "required": ["type", "boxplot"],
      "properties": {
        "type": {"const": "boxplot"},
        "boxplot": {
          "type": "object",
          "required": ["label_field", "value_field"],
          "properties": {
            "label_field": {"type": "string"},
            "value_field": {"type": "string"}
          }
        },
        "options": {"$ref": "#/$defs/chartOptions"}
      }
    },
    "histogram": {
      "type": "object",
      "required": ["type", "histogram"],
      "properties": {
        "type": {"const": "histogram"},
        "histogram": {
          "type": "object",
          "required": ["field"],
          "properties": {
            "field": {"type": "string"},
            "bins": {"type": "integer", "minimum": 2, "maximum": 100}
          }
        },
        "options": {"$ref": "#/$defs/chartOptions"}
      }
    },
    "sortItem": {
      "type": "object",
      "required": ["field"],
      "properties": {
        "field": {"type": "string"},
        "dir": {"enum": ["asc", "desc"]}
      }
    },
    "sortTransform": {
      "type": "object",
      "required": ["sort"],
      "properties": {
        "sort": {"type": "array", "items": {"$ref": "#/$defs/sortItem"}}
      }
    },
    "limitTransform": {
      "type": "object",
      "required": ["limit"],
      "properties": {
        "limit": {"type": "integer", "minimum": 1}
      }
    },
    "filterTransform": {
      "type": "object",
      "required": ["filter"],
      "properties": {
        "filter": {
          "type": "object",
          "required": ["field", "op", "value"],
          "properties": {
            "field": {"type": "string"},
            "op": {"enum": ["==", "!=", ">", "<", ">=", "<="]}
          }
        }
      }
    }
  }
}`

func compileVizSpecSchema() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(vizSpecSchemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("viz: parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("vizspec.json", doc); err != nil {
		return nil, fmt.Errorf("viz: add schema resource: %w", err)
	}
	return c.Compile("vizspec.json")
}
