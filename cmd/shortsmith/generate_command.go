package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shortsmith/internal/pipeline"
	"shortsmith/internal/transform"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		startTime  string
		endTime    string
		autoDetect bool
		mode       string
		jsonOutput bool
		explain    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <url>",
		Short: "Download a video and render a short from one segment",
		Long: `Render a short from a video.

Without --start and --end (or with --auto) the segment is chosen from the
video's heatmap or chapters. Times accept SS, MM:SS, or HH:MM:SS. Clips longer
than the configured cap are truncated at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			parsedMode, err := transform.ParseMode(mode)
			if err != nil {
				return err
			}
			a, err := ctx.openApp(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			outcome, err := a.pipeline.Generate(runCtx, pipeline.Request{
				VideoURL:   args[0],
				StartTime:  startTime,
				EndTime:    endTime,
				AutoDetect: autoDetect,
				Mode:       parsedMode,
			})
			if err != nil {
				return a.explainFailure(runCtx, cmd.ErrOrStderr(), err, "generate", explain)
			}
			if jsonOutput {
				return writeJSON(cmd, outcome)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOutcome(outcome))
			return nil
		},
	}

	cmd.Flags().StringVar(&startTime, "start", "", "Segment start (SS, MM:SS, or HH:MM:SS)")
	cmd.Flags().StringVar(&endTime, "end", "", "Segment end (SS, MM:SS, or HH:MM:SS)")
	cmd.Flags().BoolVar(&autoDetect, "auto", false, "Choose the segment automatically even when times are given")
	cmd.Flags().StringVar(&mode, "mode", string(transform.ModeShorts), "Render mode: shorts (vertical 1080x1920) or cut (trim only)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "Explain failures in plain language")
	return cmd
}

func renderOutcome(outcome pipeline.Outcome) string {
	fields := []field{{"Output", outcome.Output}}
	if outcome.Entry != nil {
		fields = append(fields, field{"History ID", strconv.FormatInt(outcome.Entry.ID, 10)})
	}
	fields = append(fields, segmentFields(outcome.Segment)...)
	fields = append(fields,
		field{"Capped", yesNo(outcome.Capped)},
		field{"Auto detected", yesNo(outcome.AutoDetected)},
		field{"Mode", string(outcome.Mode)},
	)
	if outcome.Plan != nil {
		width, height := outcome.Plan.OutputSize()
		fields = append(fields,
			field{"Rotated", yesNo(outcome.Plan.Rotate)},
			field{"Reframe", fmt.Sprintf("%s to %dx%d", outcome.Plan.Adjustment(), width, height)},
		)
	}
	fields = append(fields,
		field{"Title", outcome.Title},
		field{"Description", outcome.Description},
		field{"Hashtags", outcome.Hashtags},
		field{"AI generated", yesNo(outcome.AIGenerated)},
		field{"Cleaned files", strconv.Itoa(outcome.CleanedFiles)},
		field{"Elapsed", outcome.Elapsed.Round(100 * time.Millisecond).String()},
	)
	return renderFields(fields)
}
