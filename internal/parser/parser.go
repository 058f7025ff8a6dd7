// Package parser turns free-form model output into validated quiz questions.
//
// Parsing is split into two stages that can be exercised on their own:
// Extract finds the most plausible JSON block in the raw text, and
// Parser.Validate checks every record of that block against a strict schema.
package parser

import (
	"encoding/json"
	"fmt"

	"smartquiz/internal/domain"

	"go.uber.org/zap"
)

// Parser validates model output. It holds no mutable state and is safe for concurrent use.
type Parser struct {
	logger *zap.Logger
}

// New creates a Parser. A nil logger disables logging.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse runs both stages over raw model text.
func (p *Parser) Parse(raw string) ([]domain.QuizQuestion, error) {
	block, err := Extract(raw)
	if err != nil {
		p.logger.Warn("No structured block found in model output", zap.Int("raw_length", len(raw)))
		return nil, err
	}
	return p.Validate(block)
}

// Validate decodes an extracted block and keeps every record that passes the
// schema and whose correct answer resolves to one of its options. Invalid
// records are dropped; it only fails when nothing survives.
func (p *Parser) Validate(block []byte) ([]domain.QuizQuestion, error) {
	var decoded any
	if err := json.Unmarshal(block, &decoded); err != nil {
		return nil, domain.NewMalformedResponseError("invalid JSON", err)
	}
	list, err := records(decoded)
	if err != nil {
		return nil, domain.NewMalformedResponseError("no question records", err)
	}

	schema, err := compiledRecordSchema()
	if err != nil {
		return nil, fmt.Errorf("question schema: %w", err)
	}

	questions := make([]domain.QuizQuestion, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			p.logger.Warn("Dropping non-object question record", zap.Int("index", i))
			continue
		}
		c := normalize(m)
		if err := schema.Validate(c.fields); err != nil {
			p.logger.Warn("Dropping question record that fails schema", zap.Int("index", i), zap.Error(err))
			continue
		}
		q, err := c.resolve()
		if err != nil {
			p.logger.Warn("Dropping question record with unresolvable answer", zap.Int("index", i), zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, domain.NewMalformedResponseError(fmt.Sprintf("none of %d records is a valid question", len(list)), nil)
	}
	p.logger.Debug("Parsed model output", zap.Int("records", len(list)), zap.Int("valid", len(questions)))
	return questions, nil
}
