package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const problemSchema = `{
  "type": "object",
  "required": ["seatCards"],
  "properties": {
    "gameType": {"type": "string"},
    "vulnerability": {"type": "string"},
    "seatCards": {
      "type": "object",
      "properties": {
        "north": {"type": "string"},
        "south": {"type": "string"},
        "east": {"type": "string"},
        "west": {"type": "string"}
      },
      "additionalProperties": false
    },
    "bidding": {"type": ["string", "array"]},
    "openingLead": {"type": "string"},
    "task": {"type": "string"}
  }
}`

const solutionSchema = `{
  "type": "object",
  "required": ["seatCards", "explanation"],
  "properties": {
    "seatCards": {
      "type": "object",
      "required": ["north", "south", "east", "west"],
      "properties": {
        "north": {"type": "string", "minLength": 1},
        "south": {"type": "string", "minLength": 1},
        "east": {"type": "string", "minLength": 1},
        "west": {"type": "string", "minLength": 1}
      },
      "additionalProperties": false
    },
    "explanation": {"type": "string", "minLength": 1},
    "keyTechniques": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	schemaOnce      sync.Once
	problemSchemaC  *jsonschema.Schema
	solutionSchemaC *jsonschema.Schema
	schemaErr       error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("problem.json", strings.NewReader(problemSchema)); err != nil {
		schemaErr = fmt.Errorf("add schema: %w", err)
		return
	}
	if err := compiler.AddResource("solution.json", strings.NewReader(solutionSchema)); err != nil {
		schemaErr = fmt.Errorf("add schema: %w", err)
		return
	}
	if problemSchemaC, schemaErr = compiler.Compile("problem.json"); schemaErr != nil {
		return
	}
	solutionSchemaC, schemaErr = compiler.Compile("solution.json")
}

// ValidateProblemJSON checks a decoded problem reply against its schema.
func ValidateProblemJSON(v any) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return fmt.Errorf("compile schema: %w", schemaErr)
	}
	return validate(problemSchemaC, v)
}

// ValidateSolutionJSON checks a decoded solution reply against its schema.
func ValidateSolutionJSON(v any) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return fmt.Errorf("compile schema: %w", schemaErr)
	}
	return validate(solutionSchemaC, v)
}

func validate(s *jsonschema.Schema, v any) error {
	// The validator expects generic JSON values, so round-trip typed input.
	if _, ok := v.(map[string]any); !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal data: %w", err)
		}
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
