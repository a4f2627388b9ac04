package fieldcfg

// rulesSchema is the JSON Schema every rules file must satisfy. The
// round-trip through JSON in validateSchema means property names here
// follow the json tags on Field/Extraction.
const rulesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "required": ["extraction"],
    "additionalProperties": false,
    "properties": {
      "extraction": {
        "type": "object",
        "required": ["labels"],
        "additionalProperties": false,
        "properties": {
          "labels": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "pattern": {"type": "string"},
          "max_distance": {"type": "integer", "minimum": 1},
          "section": {"type": "string"},
          "pattern_required": {"type": "boolean"},
          "date_formats": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`
