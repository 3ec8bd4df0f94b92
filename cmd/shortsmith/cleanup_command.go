package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortsmith/internal/cleanup"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var stale bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove working files from the downloads and outputs directories",
		Long: `Remove working files.

By default downloads are removed and outputs follow cleanup.keep_outputs.
--all removes rendered outputs too. --stale only removes files older than
cleanup.stale_hours from both directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}

			var result cleanup.Result
			if stale {
				maxAge := time.Duration(cfg.Cleanup.StaleHours) * time.Hour
				for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.OutputsDir} {
					r := cleanup.CleanStale(cmd.Context(), dir, maxAge, logger)
					result.Removed = append(result.Removed, r.Removed...)
					result.Errors = append(result.Errors, r.Errors...)
					result.Skipped = append(result.Skipped, r.Skipped...)
				}
			} else {
				result = cleanup.Clean(cmd.Context(), cleanup.Options{
					DownloadsDir: cfg.Paths.DownloadsDir,
					OutputsDir:   cfg.Paths.OutputsDir,
					KeepOutputs:  cfg.Cleanup.KeepOutputs && !all,
				}, logger)
			}

			if jsonOutput {
				return writeJSON(cmd, cleanupReport(result))
			}
			printCleanupResult(cmd, result)
			if len(result.Errors) > 0 {
				return fmt.Errorf("cleanup finished with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also remove rendered outputs")
	cmd.Flags().BoolVar(&stale, "stale", false, "Only remove files older than cleanup.stale_hours")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("all", "stale")
	return cmd
}

type cleanupJSON struct {
	Removed []string          `json:"removed"`
	Skipped []string          `json:"skipped,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func cleanupReport(result cleanup.Result) cleanupJSON {
	report := cleanupJSON{Removed: result.Removed, Skipped: result.Skipped}
	if report.Removed == nil {
		report.Removed = []string{}
	}
	if len(result.Errors) > 0 {
		report.Errors = make(map[string]string, len(result.Errors))
		for _, e := range result.Errors {
			report.Errors[e.Path] = e.Error.Error()
		}
	}
	return report
}

func printCleanupResult(cmd *cobra.Command, result cleanup.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Removed %d file(s)\n", len(result.Removed))
	for _, dir := range result.Skipped {
		fmt.Fprintf(out, "Skipped %s (in use by another cleaner)\n", dir)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", e.Path, e.Error)
	}
}
