package commands

import (
	"log/slog"
	"parkeeractie/internal/components/chrono"
	"parkeeractie/internal/coordinator"
	"parkeeractie/lib/serviceutil"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--config <path/to/config.json5>]",
	Short: "Refreshes the account every scan_interval seconds until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		env, err := setup(ctx)
		if err != nil {
			serviceutil.Fatal("failed to setup", err)
		}
		defer env.shutdown()

		coord, err := coordinator.New(env.client, env.tel, env.clock)
		if err != nil {
			serviceutil.Fatal("failed to create coordinator", err)
		}

		cron := chrono.NewStandardCron(env.tel, env.clock.Location())
		defer cron.Stop()

		interval := time.Duration(env.cfg.ScanInterval) * time.Second
		err = coord.Start(ctx, cron, interval)
		if err != nil {
			cron.Stop()
			env.shutdown()
			serviceutil.Fatal("failed first refresh", err)
		}
		slog.Info("watching account", "interval", interval)

		err = cron.Cron("@every 1m", func() {
			data, ok := coord.Data()
			if !ok {
				return
			}
			if err := coord.LastError(); err != nil {
				slog.Warn("showing stale data", "err", err)
			}
			renderData(data)
		})
		if err != nil {
			slog.Warn("failed to schedule output", "err", err)
		}
		if data, ok := coord.Data(); ok {
			renderData(data)
		}

		<-ctx.Done()
		slog.Info("shutting down")
	},
}
