// Package cmd implements the local command line interface. It runs the
// same detectors and threshold evaluation as the Lambda entrypoint
// against files on disk.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "s3-log-analyzer",
	Short: "Heuristic security scanner for log files",
	Long: `s3-log-analyzer scans log files for security-relevant patterns
(critical keywords, authentication failures, rate limiting, 404 scans,
SQL injection and XSS markers), aggregates per-file statistics, and
evaluates configurable alert thresholds.

Deployed as an S3-triggered Lambda it delivers alert summaries to SNS;
this CLI runs the identical analysis against local files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file with threshold overrides")
}
