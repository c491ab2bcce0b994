// Package main provides the entry point for the resumeflow CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumeflow",
	Short: "Resume analysis client",
	Long: `resumeflow drives a remote resume analysis service: upload and parse a PDF resume, generate
a structured table, a resume check, a job description match, interview questions and a fit score,
then confirm the result into the saved list.`,
	SilenceUsage: true,
}

var (
	rootConfigPath string
	rootEnvFile    string
	rootAPIURL     string
	rootLogLevel   string
	rootVerbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by env vars and flags)")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env-file", "", "Path to an env file whose RESUMEFLOW_* values override the environment")
	rootCmd.PersistentFlags().StringVar(&rootAPIURL, "api-url", "", "Analysis service base URL (defaults to RESUMEFLOW_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Console log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print outputs in full")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
