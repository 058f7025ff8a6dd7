package parser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const recordSchemaURL = "schema://quiz-question.json"

// recordSchema is what a normalized record must look like before its
// correct answer is resolved against the options.
const recordSchema = `{
  "type": "object",
  "required": ["question", "options", "correct_answer"],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "string", "minLength": 1}
    },
    "correct_answer": {"type": ["number", "string"]},
    "explanation": {"type": "string"}
  }
}`

var compiledRecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordSchema))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(recordSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return sch, nil
})
