package service

import (
	"context"
	"time"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"
	"smartquiz/internal/parser"
	"smartquiz/internal/util"

	"go.uber.org/zap"
)

// QuizGenerator defines the quiz generation entry point
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, req domain.GenerationRequest) ([]domain.QuizQuestion, error)
}

// quizGenerator implements QuizGenerator
type quizGenerator struct {
	prompts      *PromptBuilder
	orchestrator *FallbackOrchestrator
	parser       *parser.Parser
	cfg          config.GenerationConfig
	logger       *zap.Logger
}

// NewQuizGenerator creates a new instance of quizGenerator
func NewQuizGenerator(
	prompts *PromptBuilder,
	orchestrator *FallbackOrchestrator,
	p *parser.Parser,
	cfg config.GenerationConfig,
	logger *zap.Logger,
) QuizGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &quizGenerator{
		prompts:      prompts,
		orchestrator: orchestrator,
		parser:       p,
		cfg:          cfg,
		logger:       logger,
	}
}

// GenerateQuiz implements QuizGenerator. It returns at most req.NumQuestions
// questions, in the order the model produced them, and fails rather than
// return an empty list.
func (g *quizGenerator) GenerateQuiz(ctx context.Context, req domain.GenerationRequest) ([]domain.QuizQuestion, error) {
	logger := g.logger.With(zap.String("generation_id", util.NewULID()))

	req, err := req.Normalize(g.cfg.DefaultNumQuestions, g.cfg.MaxNumQuestions)
	if err != nil {
		logger.Warn("Rejected generation request", zap.Error(err))
		return nil, domain.NewInvalidRequestError(err)
	}

	prompt, err := g.prompts.Build(req)
	if err != nil {
		return nil, domain.NewGenerationError("failed to build prompt", err)
	}

	start := time.Now()
	logger.Info("Generating quiz",
		zap.String("title", req.Title),
		zap.String("topic", req.Topic),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("num_questions", req.NumQuestions),
		zap.Bool("has_source_text", req.SourceText != ""))

	raw, err := g.orchestrator.Run(ctx, prompt, req.ModelOverride)
	if err != nil {
		logger.Error("No backend produced a response", zap.Error(err))
		return nil, domain.NewGenerationError("no backend produced a response", err)
	}

	questions, err := g.parser.Parse(raw)
	if err != nil {
		logger.Error("Model response contained no usable questions", zap.Error(err))
		return nil, domain.NewGenerationError("model response contained no usable questions", err)
	}

	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	} else if len(questions) < req.NumQuestions {
		logger.Warn("Model returned fewer questions than requested",
			zap.Int("requested", req.NumQuestions),
			zap.Int("received", len(questions)))
	}

	logger.Info("Quiz generated",
		zap.Int("questions", len(questions)),
		zap.Duration("elapsed", time.Since(start)))
	return questions, nil
}
