package domain

import (
	"errors"
	"strings"
)

// Difficulty is the requested quiz difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAny    Difficulty = "any"
)

// ParseDifficulty is case-insensitive; anything unknown becomes DifficultyAny.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	}
	return DifficultyAny
}

// GenerationRequest describes the quiz a caller wants generated.
type GenerationRequest struct {
	Title         string     `json:"title"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	NumQuestions  int        `json:"num_questions"`
	SourceText    string     `json:"source_text,omitempty"`
	ModelOverride string     `json:"model_override,omitempty"`
}

// Normalize returns a copy of r with defaults applied, or the list of
// field problems when the request cannot be served.
func (r GenerationRequest) Normalize(defaultNum, maxNum int) (GenerationRequest, error) {
	out := r
	out.Title = strings.TrimSpace(r.Title)
	out.Topic = strings.TrimSpace(r.Topic)
	out.ModelOverride = strings.TrimSpace(r.ModelOverride)
	out.Difficulty = ParseDifficulty(string(r.Difficulty))
	if strings.TrimSpace(r.SourceText) == "" {
		out.SourceText = ""
	}

	var errs ValidationErrors
	if out.Title == "" && out.Topic == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if out.NumQuestions == 0 {
		out.NumQuestions = defaultNum
	}
	if out.NumQuestions < 1 || out.NumQuestions > maxNum {
		errs = append(errs, NewOutOfRangeError("num_questions", out.NumQuestions, 1, maxNum))
	}
	if len(errs) > 0 {
		return r, errs
	}
	return out, nil
}

// QuizQuestion is one validated multiple-choice question.
// CorrectAnswer always holds the literal text of one of Options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Validate checks the invariants every emitted question must satisfy.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("at least 2 options are required")
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return nil
		}
	}
	return errors.New("correct answer is not one of the options")
}
