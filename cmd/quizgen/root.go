package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"smartquiz/internal/adapter/llm"
	"smartquiz/internal/config"
	"smartquiz/internal/logger"
	"smartquiz/internal/parser"
	"smartquiz/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// generatorFactory builds the quiz generator once flags are parsed.
// Tests replace it to avoid real backends.
type generatorFactory func(ctx context.Context) (service.QuizGenerator, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(loadGenerator)
}

func newRootCmdWith(factory generatorFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "quizgen",
		Short:        "Generate multiple-choice quizzes with Gemini and a local Ollama fallback",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.AddCommand(newGenerateCmd(factory))
	rootCmd.AddCommand(newBatchCmd(factory))
	return rootCmd
}

// loadGenerator wires config, logging, both backends and the parser.
func loadGenerator(ctx context.Context) (service.QuizGenerator, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	appLogger := logger.Get()

	primary, err := llm.NewPrimaryBackend(ctx, cfg.LLM, appLogger)
	if err != nil {
		return nil, fmt.Errorf("create primary backend: %w", err)
	}
	fallback, err := llm.NewFallbackBackend(cfg.LLM, appLogger)
	if err != nil {
		return nil, fmt.Errorf("create fallback backend: %w", err)
	}

	prompts, err := service.NewPromptBuilder(cfg.Generation)
	if err != nil {
		return nil, err
	}

	orchestrator := service.NewFallbackOrchestrator(primary, fallback, cfg.LLM, appLogger.Named("orchestrator"))
	appLogger.Info("Quiz generator initialized",
		zap.String("primary", primary.Name()),
		zap.Bool("fallback_enabled", cfg.LLM.FallbackEnabled))
	return service.NewQuizGenerator(prompts, orchestrator, parser.New(appLogger.Named("parser")), cfg.Generation, appLogger), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
