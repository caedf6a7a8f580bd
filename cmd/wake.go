package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/goalpanel/internal/adapters/power/host"
	"github.com/bnema/goalpanel/internal/application"
	"github.com/bnema/goalpanel/internal/config"
	"github.com/bnema/goalpanel/internal/logging"
	"github.com/bnema/goalpanel/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWakeCmd(app *app) *cobra.Command {
	var once bool
	var mock bool

	cmd := &cobra.Command{
		Use:   "wake",
		Short: "Run one wake cycle: cache check, fetch, redraw, sleep",
		Long:  "wake is the device main loop body. In exec sleep mode it waits for the next wake and restarts itself; in once mode it returns after the cycle.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg
			if once {
				cfg.Schedule.SleepMode = config.SleepModeOnce
			}
			if mock {
				cfg.API.Mock = true
			}
			return runWake(cmd, app, cfg)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Return after one cycle instead of sleeping and restarting")
	cmd.Flags().BoolVar(&mock, "mock", false, "Use the built-in mock payload instead of the metrics API")

	return cmd
}

func runWake(cmd *cobra.Command, app *app, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, err := host.ParseMode(cfg.Schedule.SleepMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.WithComponent(app.log, "wake")
	log.WithFields(logrus.Fields{
		"version":     version.Version,
		"sleep_secs":  int64(cfg.WakeInterval().Seconds()),
		"sleep_mode":  mode,
		"mock":        cfg.API.Mock,
		"config_file": app.configFile,
	}).Info("goalpanel starting")

	clock := app.clock(cfg)
	power := host.New(host.Options{
		Mode:   mode,
		Clock:  clock,
		Logger: logging.WithComponent(app.log, "power"),
	})

	// Nothing below may fail before the cycle arms the timer.
	store := app.openWakeStore()
	defer func() { _ = store.Close() }()

	dataSource := app.newDataSource(ctx, cfg, clock)

	var previewOut io.Writer
	if cfg.Display.Preview {
		previewOut = cmd.OutOrStdout()
	}

	cycle := application.NewWakeCycle(application.WakeCycleOptions{
		Cache:        store.cache,
		Source:       dataSource,
		Surface:      app.newSurface(cfg, previewOut, true),
		Power:        power,
		Clock:        clock,
		WakeInterval: cfg.WakeInterval(),
		ErrorHold:    cfg.Display.ErrorHold,
		SleepSettle:  cfg.Schedule.Settle,
		Logger:       logging.WithComponent(app.log, "cycle"),
	})

	report := cycle.Run(ctx)

	log.WithFields(logrus.Fields{
		"outcome":   report.Outcome,
		"connected": report.Connected,
		"panicked":  report.Panicked,
	}).Info("wake cycle finished")

	if report.SleepErr != nil && !isContextDone(report.SleepErr) {
		return fmt.Errorf("wake cycle: %w", report.SleepErr)
	}
	return nil
}
