package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortsmith/internal/api"
	"shortsmith/internal/cleanup"
	"shortsmith/internal/logging"
	"shortsmith/internal/preflight"
	"shortsmith/internal/services"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			a, err := ctx.openApp(cmd)
			if err != nil {
				return err
			}
			cfg := a.cfg
			if strings.TrimSpace(bind) != "" {
				cfg.API.Bind = strings.TrimSpace(bind)
			}

			if !skipPreflight {
				failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, services.CommandExecutor{}))
				if len(failed) > 0 {
					names := make([]string, 0, len(failed))
					for _, r := range failed {
						names = append(names, fmt.Sprintf("%s (%s)", r.Name, r.Detail))
					}
					return services.Wrap(services.ErrConfiguration, "serve", "preflight",
						"failed checks: "+strings.Join(names, "; "), nil)
				}
			}

			if removed := logging.PruneLogs(a.logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays); removed > 0 {
				a.logger.Info("pruned old logs", logging.Int("removed", removed))
			}
			if cfg.Cleanup.StaleHours > 0 {
				cleanup.CleanStale(cmd.Context(), cfg.Paths.DownloadsDir, time.Duration(cfg.Cleanup.StaleHours)*time.Hour, a.logger)
			}

			server, err := api.NewServer(api.Deps{
				Analyzer:   a.analyzer,
				Generator:  a.pipeline,
				Store:      a.store,
				LLMEnabled: a.llm.Enabled(),
			}, api.Options{
				Token:          cfg.API.Token,
				AllowedOrigins: cfg.API.AllowedOrigins,
				Cleanup: cleanup.Options{
					DownloadsDir: cfg.Paths.DownloadsDir,
					OutputsDir:   cfg.Paths.OutputsDir,
					KeepOutputs:  cfg.Cleanup.KeepOutputs,
				},
				Geometry: geometryDefaults(ctx),
			}, a.logger)
			if err != nil {
				return err
			}
			if cfg.API.Token == "" {
				logging.WarnWithContext(a.logger, "api token not configured", "api_unauthenticated",
					logging.String(logging.FieldErrorHint, "set api.token or SHORTSMITH_API_TOKEN"),
					logging.String(logging.FieldImpact, "any client that can reach the bind address can render shorts"),
				)
			}
			return api.Run(cmd.Context(), cfg.API.Bind, cfg.LockPath(), server, a.logger)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when required tools are missing")
	return cmd
}

