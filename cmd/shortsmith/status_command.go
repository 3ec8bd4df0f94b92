package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shortsmith/internal/cleanup"
	"shortsmith/internal/preflight"
	"shortsmith/internal/services"
)

type statusReport struct {
	Checks    []preflight.Result `json:"checks"`
	LLM       preflight.Result   `json:"llm"`
	History   preflight.Result   `json:"history"`
	Workspace []cleanup.Usage    `json:"workspace"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check tools, directories, and the text generation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			checks := preflight.RunAll(runCtx, cfg, services.CommandExecutor{})
			// RunAll reports the LLM only when keyed; the status view always shows it.
			filtered := checks[:0]
			for _, c := range checks {
				if c.Name != "Text generation LLM" {
					filtered = append(filtered, c)
				}
			}
			report := statusReport{
				Checks:    filtered,
				LLM:       preflight.CheckLLMFromConfig(runCtx, cfg),
				History:   preflight.CheckHistory(runCtx, cfg),
				Workspace: preflight.WorkspaceUsage(cfg),
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(report, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(report statusReport, colorize bool) string {
	var lines []string
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, check := range report.Checks {
		lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
	}
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Services", colorize)...)
	lines = append(lines, renderStatusLine(report.LLM.Name, checkKind(report.LLM), report.LLM.Detail, colorize))
	lines = append(lines, renderStatusLine(report.History.Name, checkKind(report.History), report.History.Detail, colorize))
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Workspace", colorize)...)
	for _, usage := range report.Workspace {
		lines = append(lines, renderStatusLine(usage.Dir, statusInfo,
			fmt.Sprintf("%d file(s), %s", usage.Files, formatBytes(usage.Bytes)), colorize))
	}
	return strings.Join(lines, "\n")
}

func checkKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
