package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"symptrack/internal/client"
)

var (
	version = "dev" // Overwritten at build time

	endpoint string
	anonKey  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "symptrack",
		Short: "Symptom checker backed by an LLM",
		Long: `symptrack sends a free-text symptom description to the analysis endpoint
and shows the likely condition, a coarse risk level and recovery advice.

It is not a medical device and does not give a diagnosis.`,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", envOr("SYMPTRACK_ENDPOINT", "http://localhost:8080"),
		"Analysis endpoint URL (env SYMPTRACK_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&anonKey, "anon-key", os.Getenv("SYMPTRACK_ANON_KEY"),
		"Key sent as apikey and bearer token to hosted endpoints (env SYMPTRACK_ANON_KEY)")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newChatCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "symptrack version %s\n", version)
		},
	}
}

func newClient() *client.Client {
	return client.New(endpoint, anonKey)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
