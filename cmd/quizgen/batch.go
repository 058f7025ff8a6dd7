package main

import (
	"context"
	"encoding/json"
	"fmt"

	"smartquiz/internal/domain"
	"smartquiz/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// batchResult is one line of batch output. Exactly one of Questions and Error is set.
type batchResult struct {
	Index     int                   `json:"index"`
	Questions []domain.QuizQuestion `json:"questions,omitempty"`
	Code      domain.ErrorCode      `json:"code,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func newBatchCmd(factory generatorFactory) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate several quizzes from a JSON array of requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readSource(cmd, file)
			if err != nil {
				return err
			}
			var reqs []domain.GenerationRequest
			if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
				return fmt.Errorf("decode batch requests: %w", err)
			}

			gen, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			results, err := runBatch(cmd.Context(), gen, reqs, concurrency)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of generation requests (- for stdin)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Maximum number of generations in flight")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// runBatch generates every request independently. A failed request is
// reported in its result and does not stop the others. Results keep input order.
func runBatch(ctx context.Context, gen service.QuizGenerator, reqs []domain.GenerationRequest, concurrency int) ([]batchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]batchResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			questions, err := gen.GenerateQuiz(ctx, req)
			res := batchResult{Index: i, Questions: questions}
			if err != nil {
				res.Code = domain.CodeOf(err)
				res.Error = err.Error()
			}
			results[i] = res
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
