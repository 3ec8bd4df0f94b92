package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shortsmith/internal/analysis"
	"shortsmith/internal/segment"
	"shortsmith/internal/textutil"
	"shortsmith/internal/timecode"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var explain bool

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Pick the best segment of a video for a short",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			a, err := ctx.openApp(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			result := a.analyzer.Analyze(runCtx, args[0])

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else if result.Success {
				fmt.Fprintln(cmd.OutOrStdout(), renderAnalysis(result))
			}
			if !result.Success {
				return a.explainFailure(runCtx, cmd.ErrOrStderr(), result.Err(), "analyze", explain)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "Explain failures in plain language")
	return cmd
}

func renderAnalysis(result analysis.Result) string {
	var fields []field
	if result.Video != nil {
		fields = append(fields,
			field{"Video", result.Video.DisplayTitle()},
			field{"Uploader", result.Video.Uploader},
			field{"Duration", timecode.FormatClock(result.Video.Duration)},
		)
	}
	if result.Segment != nil {
		fields = append(fields, segmentFields(*result.Segment)...)
	}
	if result.Metadata != nil {
		fields = append(fields,
			field{"Title", result.Metadata.Title},
			field{"Description", result.Metadata.Description},
			field{"Hashtags", textutil.FormatHashtags(result.Metadata.Tags)},
			field{"AI generated", yesNo(result.Metadata.AIGenerated)},
		)
	}
	return renderFields(fields)
}

func segmentFields(seg segment.Segment) []field {
	return []field{
		{"Segment", fmt.Sprintf("%s - %s", timecode.Format(seg.Start), timecode.Format(seg.End))},
		{"Length", strconv.Itoa(int(seg.Length())) + "s"},
		{"Method", string(seg.Method)},
		{"Confidence", string(seg.Confidence)},
		{"Reason", seg.Reason},
	}
}
