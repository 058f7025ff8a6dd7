package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"smartquiz/internal/domain"
	"smartquiz/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	last     domain.GenerationRequest
	fn       func(req domain.GenerationRequest) ([]domain.QuizQuestion, error)
}

func (f *fakeGenerator) GenerateQuiz(_ context.Context, req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	return f.fn(req)
}

func oneQuestion(title string) []domain.QuizQuestion {
	return []domain.QuizQuestion{{Question: title + "?", Options: []string{"a", "b"}, CorrectAnswer: "a"}}
}

func factoryFor(gen service.QuizGenerator) generatorFactory {
	return func(context.Context) (service.QuizGenerator, error) { return gen, nil }
}

func execute(t *testing.T, gen service.QuizGenerator, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWith(factoryFor(gen))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCmd(t *testing.T) {
	gen := &fakeGenerator{fn: func(req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return oneQuestion(req.Title), nil
	}}

	out, err := execute(t, gen, "Go has goroutines.",
		"generate", "--title", "Go", "--topic", "concurrency", "--difficulty", "Hard", "-n", "3", "--source-file", "-", "--model", "gemini-1.5-pro")
	require.NoError(t, err)

	var questions []domain.QuizQuestion
	require.NoError(t, json.Unmarshal([]byte(out), &questions))
	require.Len(t, questions, 1)
	assert.Equal(t, "Go?", questions[0].Question)

	assert.Equal(t, domain.GenerationRequest{
		Title: "Go", Topic: "concurrency", Difficulty: domain.DifficultyHard, NumQuestions: 3,
		SourceText: "Go has goroutines.", ModelOverride: "gemini-1.5-pro",
	}, gen.last)
}

func TestGenerateCmd_LegacyAlias(t *testing.T) {
	gen := &fakeGenerator{fn: func(req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return oneQuestion(req.Topic), nil
	}}

	_, err := execute(t, gen, "", "generate-with-openai", "--topic", "maps")
	require.NoError(t, err)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestGenerateCmd_Failure(t *testing.T) {
	gen := &fakeGenerator{fn: func(domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return nil, domain.NewGenerationError("no backend produced a response", &domain.AllBackendsFailedError{
			Primary: domain.NewBackendAuthError("gemini", "API key not configured", nil),
		})
	}}

	_, err := execute(t, gen, "", "generate", "--title", "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALL_BACKENDS_FAILED")
}

func TestGenerateCmd_UnreadablePDFSource(t *testing.T) {
	gen := &fakeGenerator{fn: func(req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return oneQuestion(req.Title), nil
	}}
	path := filepath.Join(t.TempDir(), "slides.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not really a pdf"), 0o600))

	_, err := execute(t, gen, "", "generate", "--title", "Go", "--source-file", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_INPUT")
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestBatchCmd(t *testing.T) {
	gen := &fakeGenerator{fn: func(req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		if req.Title == "bad" {
			return nil, domain.NewInvalidRequestError(domain.ValidationErrors{domain.NewMissingFieldError("title")})
		}
		return oneQuestion(req.Title), nil
	}}

	path := filepath.Join(t.TempDir(), "requests.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"one"},{"title":"bad"},{"title":"three","num_questions":2}]`), 0o600))

	out, err := execute(t, gen, "", "batch", "--file", path, "--concurrency", "2")
	require.NoError(t, err)

	var results []batchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, "one?", results[0].Questions[0].Question)
	assert.Equal(t, domain.ErrInvalidInput, results[1].Code)
	assert.Empty(t, results[1].Questions)
	assert.Equal(t, "three?", results[2].Questions[0].Question)
}

func TestBatchCmd_BadInput(t *testing.T) {
	gen := &fakeGenerator{fn: func(domain.GenerationRequest) ([]domain.QuizQuestion, error) { return nil, nil }}

	_, err := execute(t, gen, "not json", "batch", "--file", "-")
	assert.Error(t, err)

	_, err = execute(t, gen, "", "batch")
	assert.Error(t, err)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestRunBatch_RespectsConcurrencyLimit(t *testing.T) {
	gen := &fakeGenerator{fn: func(req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return oneQuestion(req.Title), nil
	}}
	reqs := make([]domain.GenerationRequest, 20)
	for i := range reqs {
		reqs[i].Title = string(rune('a' + i))
	}

	results, err := runBatch(context.Background(), gen, reqs, 3)
	require.NoError(t, err)

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, reqs[i].Title+"?", r.Questions[0].Question)
	}
	assert.LessOrEqual(t, gen.peak.Load(), int32(3))
	assert.Equal(t, int32(20), gen.calls.Load())
}

func TestRunBatch_CanceledContext(t *testing.T) {
	gen := &fakeGenerator{fn: func(domain.GenerationRequest) ([]domain.QuizQuestion, error) {
		return nil, errors.New("should not matter")
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runBatch(ctx, gen, []domain.GenerationRequest{{Title: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
