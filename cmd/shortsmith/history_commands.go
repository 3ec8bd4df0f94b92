package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortsmith/internal/cleanup"
	"shortsmith/internal/history"
	"shortsmith/internal/services"
	"shortsmith/internal/textutil"
	"shortsmith/internal/timecode"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage generated shorts",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryMarkUploadedCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated shorts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []*history.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No shorts recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.CreatedAt.Local().Format(time.DateTime),
					textutil.Ellipsize(e.DisplayTitle(), 40),
					fmt.Sprintf("%s-%s", timecode.Format(e.StartTime), timecode.Format(e.EndTime)),
					e.Mode,
					string(e.Method),
					uploadedLabel(e),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Created", "Title", "Segment", "Mode", "Method", "Uploaded"},
				rows,
				1,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of shorts to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one generated short",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			id, err := parseShortID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entry)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEntry(entry))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryMarkUploadedCommand(ctx *commandContext) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "mark-uploaded <id> <youtube-video-id>",
		Short: "Record that a short was uploaded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			id, err := parseShortID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entry, err := store.MarkUploaded(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Short %d marked as uploaded (%s)\n", entry.ID, entry.UploadedVideoID)
			if !clean {
				return nil
			}
			cfg := ctx.configValue()
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}
			result := cleanup.AfterUpload(cmd.Context(), entry.OutputPath, cleanup.Options{
				DownloadsDir: cfg.Paths.DownloadsDir,
				OutputsDir:   cfg.Paths.OutputsDir,
			}, logger)
			printCleanupResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clean, "cleanup", false, "Delete the uploaded file and empty the downloads directory")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepFile bool

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a short from history and disk",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			id, err := parseShortID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if _, err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Short %d removed from history\n", id)
			if keepFile || strings.TrimSpace(entry.OutputPath) == "" {
				return nil
			}
			switch err := os.Remove(entry.OutputPath); {
			case err == nil:
				fmt.Fprintf(out, "Deleted %s\n", entry.OutputPath)
			case errors.Is(err, os.ErrNotExist):
			default:
				return fmt.Errorf("remove %s: %w", entry.OutputPath, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFile, "keep-file", false, "Keep the rendered file on disk")
	return cmd
}

func parseShortID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "history", "parse id", fmt.Sprintf("invalid short id %q", value), nil)
	}
	return id, nil
}

func uploadedLabel(e *history.Entry) string {
	if !e.Uploaded {
		return "no"
	}
	if e.UploadedVideoID != "" {
		return e.UploadedVideoID
	}
	return "yes"
}

func renderEntry(e *history.Entry) string {
	return renderFields([]field{
		{"ID", strconv.FormatInt(e.ID, 10)},
		{"Video", e.DisplayTitle()},
		{"URL", e.VideoURL},
		{"Segment", fmt.Sprintf("%s - %s", timecode.Format(e.StartTime), timecode.Format(e.EndTime))},
		{"Length", strconv.Itoa(int(e.Length())) + "s"},
		{"Mode", e.Mode},
		{"Method", string(e.Method)},
		{"Confidence", string(e.Confidence)},
		{"Reason", e.Reason},
		{"Output", e.OutputPath},
		{"Title", e.GeneratedTitle},
		{"Description", e.GeneratedDescription},
		{"Hashtags", e.GeneratedHashtags},
		{"AI generated", yesNo(e.AIGenerated)},
		{"Uploaded", uploadedLabel(e)},
		{"Created", e.CreatedAt.Local().Format(time.DateTime)},
	})
}
