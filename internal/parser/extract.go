package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"smartquiz/internal/domain"
)

var (
	thinkBlock    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedBlock   = regexp.MustCompile("(?s)```[ \\t]*(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
)

// Extract locates the JSON array or object holding the questions in raw
// model output and returns it verbatim. Surrounding prose, <think> blocks
// and markdown fences are ignored. A value that carries question records
// wins over an earlier one that does not, so a citation like "[1]" in the
// preamble never shadows the real list.
func Extract(raw string) ([]byte, error) {
	text := strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
	if text == "" {
		return nil, domain.NewMalformedResponseError("empty response", nil)
	}

	var fenced []string
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		fenced = append(fenced, m[1])
	}

	for _, accept := range []func([]byte) bool{hasQuestionRecords, anyValue} {
		for _, body := range fenced {
			if block, ok := firstJSONValue(body, accept); ok {
				return block, nil
			}
		}
		if block, ok := firstJSONValue(text, accept); ok {
			return block, nil
		}
	}
	if block, ok := repairWidestSpan(text); ok {
		return block, nil
	}
	return nil, domain.NewMalformedResponseError("no JSON array or object found", nil)
}

// firstJSONValue tries every '[' or '{' in order and returns the first
// complete JSON value that accept allows.
func firstJSONValue(s string, accept func([]byte) bool) ([]byte, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var v json.RawMessage
		if err := dec.Decode(&v); err == nil {
			if block := bytes.TrimSpace(v); accept(block) {
				return block, true
			}
		}
	}
	return nil, false
}

func anyValue([]byte) bool { return true }

// hasQuestionRecords reports whether block holds at least one object with
// question text, in any of the shapes records accepts.
func hasQuestionRecords(block []byte) bool {
	var v any
	if err := json.Unmarshal(block, &v); err != nil {
		return false
	}
	list, err := records(v)
	if err != nil {
		return false
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok && firstString(m, questionKeys...) != "" {
			return true
		}
	}
	return false
}

// repairWidestSpan takes the widest bracketed span and applies the usual
// fixes for sloppy model output: trailing commas and single-quoted strings.
func repairWidestSpan(s string) ([]byte, bool) {
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start == -1 || end <= start {
			continue
		}
		span := s[start : end+1]
		for _, fixed := range []string{
			trailingComma.ReplaceAllString(span, "$1"),
			strings.ReplaceAll(span, "'", `"`),
			trailingComma.ReplaceAllString(strings.ReplaceAll(span, "'", `"`), "$1"),
		} {
			if json.Valid([]byte(fixed)) {
				return []byte(fixed), true
			}
		}
	}
	return nil, false
}
