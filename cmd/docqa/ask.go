package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docqa/internal/parser"
)

var (
	askDoc       string
	askQuestions []string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer questions about a local document",
	Example: `  docqa ask --doc policy.md -q "What is the grace period?" -q "Is AYUSH covered?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(askQuestions) == 0 {
			return eris.New("at least one -q question is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		answers, err := env.Pipeline.AnswerSource(ctx, func() (string, error) {
			return parser.LoadFile(askDoc)
		}, askQuestions)
		if err != nil {
			return err
		}
		printAnswers(cmd.OutOrStdout(), askQuestions, answers)
		return nil
	},
}

func printAnswers(w io.Writer, questions, answers []string) {
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	for i, q := range questions {
		fmt.Fprintf(w, "%s %s\n", boldCyan(fmt.Sprintf("Q%d.", i+1)), q)
		fmt.Fprintf(w, "    %s\n\n", green(answers[i]))
	}
}

func init() {
	askCmd.Flags().StringVar(&askDoc, "doc", "", "document file (.txt, .md, .html, .csv)")
	askCmd.Flags().StringArrayVarP(&askQuestions, "question", "q", nil, "question to answer (repeatable)")
	_ = askCmd.MarkFlagRequired("doc")
	rootCmd.AddCommand(askCmd)
}
