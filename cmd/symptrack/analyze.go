package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"symptrack/internal/chat"
	"symptrack/internal/client"
	"symptrack/pkg"
)

var outputFormat string

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMPTOMS",
		Short: "Analyze a symptom description once",
		Long: `Send one symptom description to the analysis endpoint and print the result.

Examples:
  # Human readable output
  symptrack analyze "I have a fever and chills"

  # Machine readable output against a hosted endpoint
  symptrack analyze "sore throat since yesterday" -o json \
    --endpoint https://example.supabase.co/functions/v1/analyze-symptoms`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "human", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	var s *spinner.Spinner
	if outputFormat == "human" {
		s = spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " " + chat.AnalyzingPlaceholder
		s.Start()
	}

	res, err := newClient().Analyze(cmd.Context(), args[0])
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return describeFailure(err)
	}

	return writeResult(cmd.OutOrStdout(), res, outputFormat)
}

// describeFailure turns an endpoint error into the message the user sees.
func describeFailure(err error) error {
	if client.IsMisconfigured(err) {
		return fmt.Errorf("%s: %s", chat.ConfigTitle, chat.ConfigBody)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Kind() == pkg.CodeMissingInput {
		return errors.New(apiErr.Message)
	}
	return fmt.Errorf("%s: %w", chat.FailTitle, err)
}

func writeResult(w io.Writer, res *pkg.AnalysisResult, format string) error {
	switch format {
	case "json":
		output, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
	case "yaml":
		output, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(output))
	default:
		chat.RenderResult(w, res)
	}
	return nil
}

func printNotice(w io.Writer, title, body string) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "✗ %s\n", title)
	fmt.Fprintf(w, "  %s\n", body)
}
