package parser

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"smartquiz/internal/domain"
)

var (
	questionKeys = []string{"question", "text", "prompt", "q"}
	optionKeys   = []string{"options", "choices", "answers"}
	correctKeys  = []string{"correct_answer", "answer", "correct_option", "correct", "correct_index"}
	letterKeys   = []string{"a", "b", "c", "d", "e", "f"}
)

// candidate is one model record after field aliases were folded together.
type candidate struct {
	fields map[string]any
	// letters maps "a", "b", ... to option text for records that label their
	// options by letter (option_a..option_d, or an options object).
	letters map[string]string
	// positions is the options as the model numbered them, blank entries
	// included as "". Index answers resolve against it.
	positions []string
}

// records finds the list of question records inside a decoded block.
func records(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		for _, k := range []string{"questions", "quiz", "items"} {
			if list, ok := t[k].([]any); ok {
				return list, nil
			}
		}
		if firstString(t, questionKeys...) != "" {
			return []any{t}, nil
		}
		return nil, errors.New("object has no questions array")
	}
	return nil, fmt.Errorf("unexpected JSON value of type %T", v)
}

func normalize(m map[string]any) candidate {
	c := candidate{fields: map[string]any{}}

	if q := firstString(m, questionKeys...); q != "" {
		c.fields["question"] = q
	}

	var options []any
	for _, k := range optionKeys {
		switch raw := m[k].(type) {
		case []any:
			c.positions = make([]string, len(raw))
			for i, o := range raw {
				if s := scalarString(o); s != "" {
					options = append(options, s)
					c.positions[i] = s
				}
			}
		case map[string]any:
			options, c.letters, c.positions = letteredOptions(raw, "")
		}
		if options != nil {
			break
		}
	}
	if options == nil {
		options, c.letters, c.positions = letteredOptions(m, "option_")
		if options == nil {
			options, c.letters, c.positions = letteredOptions(m, "")
		}
	}
	if options != nil {
		c.fields["options"] = options
	}

	for _, k := range correctKeys {
		if v, ok := m[k].(float64); ok {
			c.fields["correct_answer"] = v
			break
		}
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			c.fields["correct_answer"] = strings.TrimSpace(s)
			break
		}
	}

	if e, ok := m["explanation"].(string); ok {
		c.fields["explanation"] = strings.TrimSpace(e)
	} else {
		c.fields["explanation"] = ""
	}
	return c
}

// letteredOptions collects prefix+"a", prefix+"b", ... in letter order.
// positions places each option at its letter's index, so a missing "b"
// leaves a blank slot rather than shifting "c" down.
func letteredOptions(m map[string]any, prefix string) ([]any, map[string]string, []string) {
	letters := map[string]string{}
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		l := strings.TrimPrefix(key, prefix)
		if !isLetterKey(l) {
			continue
		}
		if s := scalarString(v); s != "" {
			letters[l] = s
		}
	}
	if len(letters) == 0 {
		return nil, nil, nil
	}
	keys := make([]string, 0, len(letters))
	for l := range letters {
		keys = append(keys, l)
	}
	sort.Strings(keys)
	options := make([]any, len(keys))
	positions := make([]string, letterIndex(keys[len(keys)-1])+1)
	for i, l := range keys {
		options[i] = letters[l]
		positions[letterIndex(l)] = letters[l]
	}
	return options, letters, positions
}

func isLetterKey(s string) bool {
	return letterIndex(s) >= 0
}

func letterIndex(s string) int {
	for i, l := range letterKeys {
		if s == l {
			return i
		}
	}
	return -1
}

// resolve turns a schema-valid candidate into a QuizQuestion, converting the
// correct answer into the literal option text.
func (c candidate) resolve() (domain.QuizQuestion, error) {
	q := domain.QuizQuestion{
		Question:    c.fields["question"].(string),
		Explanation: c.fields["explanation"].(string),
	}
	for _, o := range c.fields["options"].([]any) {
		q.Options = append(q.Options, o.(string))
	}

	switch v := c.fields["correct_answer"].(type) {
	case float64:
		// Range is checked before converting: int(1e20) overflows.
		if v != math.Trunc(v) || v < 0 || v >= float64(len(c.positions)) {
			return q, fmt.Errorf("correct answer index %v out of range", v)
		}
		answer := c.positions[int(v)]
		if answer == "" {
			return q, fmt.Errorf("correct answer index %v points at a blank option", v)
		}
		q.CorrectAnswer = answer
	case string:
		answer, ok := matchOption(q.Options, v)
		if !ok && c.letters != nil {
			answer, ok = c.letters[strings.ToLower(strings.Trim(v, " .()"))]
		}
		if !ok {
			return q, fmt.Errorf("correct answer %q matches no option", v)
		}
		q.CorrectAnswer = answer
	default:
		return q, errors.New("correct answer has unsupported type")
	}
	return q, q.Validate()
}

func matchOption(options []string, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	return "", false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// scalarString renders strings and numbers as option text; anything else is "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
