package cmd

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiimaxx/s3-log-analyzer/internal/alerts"
	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
	"github.com/shiimaxx/s3-log-analyzer/internal/report"
	"github.com/shiimaxx/s3-log-analyzer/pkg/config"
)

var gzipMagic = []byte{0x1f, 0x8b}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze local log files",
	Long: `Analyze one or more local log files (gzip-compressed files are
decompressed transparently), print the alert summary for each, and exit
non-zero if any alert condition fired.

Thresholds come from the environment, with the same variables the Lambda
deployment uses (ERROR_RATE_THRESHOLD, AUTH_FAILURE_THRESHOLD, ...).

Examples:
  s3-log-analyzer analyze /var/log/app.log
  s3-log-analyzer analyze --env-file .env logs/prod/2026-08-23.log.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fileAnalyzer := analyzer.New(cfg.MaxStoredDetections)
	alertedFiles := 0

	for _, path := range args {
		content, err := readLogFile(path)
		if err != nil {
			return err
		}

		analysis, err := fileAnalyzer.Analyze(content)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}

		conditions := alerts.Evaluate(analysis.Stats, cfg.Thresholds())
		if len(conditions) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines, no alerts\n", path, analysis.Stats.TotalLines)
			continue
		}

		alertedFiles++
		summary := report.Summary{
			FileURI:     path,
			Timestamp:   time.Now(),
			Environment: cfg.Environment,
			Alerts:      conditions,
			Detections:  analysis.Detections,
			Stats:       analysis.Stats,
			TopIPs:      report.TopIPs(analysis.Stats.IPFrequency, cfg.TopIPCount),
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Format(summary))
	}

	if alertedFiles > 0 {
		return fmt.Errorf("alerts detected in %d of %d file(s)", alertedFiles, len(args))
	}
	return nil
}

func readLogFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer gzipReader.Close()

	content, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return content, nil
}
