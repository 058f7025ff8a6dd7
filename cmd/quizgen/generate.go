package main

import (
	"fmt"

	"smartquiz/internal/domain"
	"smartquiz/internal/source"

	"github.com/spf13/cobra"
)

func newGenerateCmd(factory generatorFactory) *cobra.Command {
	var (
		req        domain.GenerationRequest
		difficulty string
		sourceFile string
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"generate-with-openai"},
		Short:   "Generate one quiz and print its questions as JSON",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Difficulty = domain.ParseDifficulty(difficulty)
			if sourceFile != "" {
				text, err := readSource(cmd, sourceFile)
				if err != nil {
					return err
				}
				req.SourceText = text
			}

			gen, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			questions, err := gen.GenerateQuiz(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("%s: %w", domain.CodeOf(err), err)
			}
			return writeJSON(cmd.OutOrStdout(), questions)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "Quiz title")
	f.StringVar(&req.Topic, "topic", "", "Quiz topic")
	f.StringVar(&difficulty, "difficulty", string(domain.DifficultyAny), "easy, medium, hard or any")
	f.IntVarP(&req.NumQuestions, "num", "n", 0, "Number of questions (0 uses the configured default)")
	f.StringVar(&sourceFile, "source-file", "", "Text or PDF file to ground the questions in (- for stdin)")
	f.StringVar(&req.ModelOverride, "model", "", "Override the primary backend model")
	return cmd
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		text string
		err  error
	)
	if path == "-" {
		text, err = source.Read(cmd.InOrStdin())
	} else {
		text, err = source.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", domain.CodeOf(err), err)
	}
	return text, nil
}
