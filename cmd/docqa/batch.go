package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docqa/internal/parser"
)

var (
	batchInput  string
	batchOutput string
)

// batchItem is one input line. Document names a file; Text carries the
// document inline and wins when both are set.
type batchItem struct {
	ID        string   `json:"id"`
	Document  string   `json:"document,omitempty"`
	Text      string   `json:"text,omitempty"`
	Questions []string `json:"questions"`
}

type batchResult struct {
	ID      string   `json:"id"`
	Answers []string `json:"answers"`
	Error   string   `json:"error,omitempty"`
}

type answerFunc func(ctx context.Context, item batchItem) ([]string, error)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Answer question sets from a JSON lines file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		in, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrapf(err, "batch: open %s", batchInput)
		}
		defer in.Close()
		items, err := readBatch(in)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		results := processBatch(ctx, items, cfg.Batch.Concurrency, func(ctx context.Context, item batchItem) ([]string, error) {
			if item.Text != "" {
				return env.Pipeline.Answer(ctx, item.Text, item.Questions), nil
			}
			return env.Pipeline.AnswerSource(ctx, func() (string, error) {
				return parser.LoadFile(item.Document)
			}, item.Questions)
		})

		out := cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrapf(err, "batch: create %s", batchOutput)
			}
			defer f.Close()
			out = f
		}
		return writeBatch(out, results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "JSON lines file of {id, document|text, questions}")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results here instead of stdout")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func readBatch(r io.Reader) ([]batchItem, error) {
	var items []batchItem
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), parser.MaxFileBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var item batchItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, eris.Wrapf(err, "batch: line %d", line)
		}
		if item.Text == "" && item.Document == "" {
			return nil, eris.Errorf("batch: line %d has neither document nor text", line)
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read input")
	}
	return items, nil
}

// processBatch answers items with bounded concurrency. Results keep input
// order; a failed item records its error and does not stop the others.
func processBatch(ctx context.Context, items []batchItem, concurrency int, answer answerFunc) []batchResult {
	results := make([]batchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for i, item := range items {
		g.Go(func() error {
			results[i] = batchResult{ID: item.ID, Answers: []string{}}
			if err := gctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}
			answers, err := answer(gctx, item)
			if err != nil {
				zap.L().Warn("batch item failed", zap.String("id", item.ID), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Answers = answers
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeBatch(w io.Writer, results []batchResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "batch: write result")
		}
	}
	return nil
}
