package intent

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// RulesSchema is the JSON Schema a rules file must satisfy
const RulesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["category", "pattern", "action"],
        "additionalProperties": false,
        "properties": {
          "category": {
            "type": "string",
            "pattern": "^[a-z_]+$"
          },
          "pattern": {
            "type": "string",
            "minLength": 1,
            "maxLength": 1000
          },
          "action": {
            "type": "string",
            "minLength": 1
          }
        }
      }
    }
  }
}`

var rulesSchemaLoader = gojsonschema.NewStringLoader(RulesSchema)

type rulesDocument struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRulesFile reads a YAML rule table. Rules keep their file order.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table
func ParseRules(data []byte) ([]Rule, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	result, err := gojsonschema.Validate(rulesSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema validation errors: %s", strings.Join(msgs, "; "))
	}

	var doc rulesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	for i, rule := range doc.Rules {
		if err := ValidatePattern(rule.Pattern); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return doc.Rules, nil
}
