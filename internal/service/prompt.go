package service

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"
)

// defaultPromptTemplate joins the system instruction and the user request
// into the single prompt every backend receives.
const defaultPromptTemplate = `You are an expert exam writer and pedagogue. Produce EXACTLY one JSON array of multiple-choice questions and nothing else: no commentary and no markdown fences.
Each array item must be a JSON object with the keys "question", "options", "correct_answer" and "explanation".
"options" is an array of at least 2 distinct answer strings. "correct_answer" must repeat the text of the correct option exactly.

Generate {{.NumQuestions}} multiple-choice questions for a quiz titled "{{.Title}}" on the topic "{{.Topic}}".
Difficulty: {{.Difficulty}}.
{{- if .SourceText}}
Base the questions strictly on the source text below and do not invent facts. If the source does not contain enough material, return fewer items rather than unrelated content.

SOURCE:
{{.SourceText}}
{{- else}}
Each item looks like: {"question":"...","options":["...","...","...","..."],"correct_answer":"...","explanation":"..."}
{{- end}}
`

// promptData is what templates can reference.
type promptData struct {
	Title        string
	Topic        string
	Difficulty   domain.Difficulty
	NumQuestions int
	SourceText   string
}

// PromptBuilder renders the generation prompt. The same request always
// yields the same prompt.
type PromptBuilder struct {
	tmpl            *template.Template
	sourceTextLimit int
}

// NewPromptBuilder parses cfg.PromptTemplateFile when set, or the built-in template otherwise.
func NewPromptBuilder(cfg config.GenerationConfig) (*PromptBuilder, error) {
	text := defaultPromptTemplate
	name := "default"
	if cfg.PromptTemplateFile != "" {
		raw, err := os.ReadFile(cfg.PromptTemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt template: %w", err)
		}
		text = string(raw)
		name = cfg.PromptTemplateFile
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl, sourceTextLimit: cfg.SourceTextLimit}, nil
}

// Build renders the prompt for an already normalized request.
func (b *PromptBuilder) Build(req domain.GenerationRequest) (string, error) {
	data := promptData{
		Title:        req.Title,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		NumQuestions: req.NumQuestions,
		SourceText:   truncateRunes(strings.TrimSpace(req.SourceText), b.sourceTextLimit),
	}
	if data.Title == "" {
		data.Title = data.Topic
	}
	if data.Topic == "" {
		data.Topic = data.Title
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// truncateRunes cuts s to at most limit runes. limit <= 0 means no limit.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
