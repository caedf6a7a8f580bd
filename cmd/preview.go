package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/goalpanel/internal/adapters/source"
	"github.com/bnema/goalpanel/internal/application"
	"github.com/bnema/goalpanel/internal/logging"
	"github.com/spf13/cobra"
)

func newPreviewCmd(app *app) *cobra.Command {
	var offline bool
	var noData bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Draw the panel from the mock payload in the terminal",
		Long:  "preview renders one panel refresh without the network, the power pin or the retained store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if offline && noData {
				return errors.New("--offline and --no-data are mutually exclusive")
			}

			cfg := app.cfg
			cfg.API.Mock = true
			ctx := cmd.Context()

			surface := app.newSurface(cfg, cmd.OutOrStdout(), false)
			if err := surface.Init(ctx); err != nil {
				return err
			}
			defer func() { _ = surface.Hibernate() }()

			if noData {
				return surface.RenderError(application.NoDataMessage)
			}

			dataSource := application.NewDataSource(application.DataSourceOptions{
				Mock:           source.MockFetcher{},
				MockMode:       true,
				TimezoneOffset: cfg.TimezoneOffset(),
				Logger:         logging.WithComponent(app.log, "preview"),
			})
			snapshot, err := dataSource.FetchSnapshot(ctx)
			if err != nil {
				return fmt.Errorf("decode mock payload: %w", err)
			}
			snapshot.Fresh = true
			snapshot.LastUpdateSuccess = true
			snapshot.TargetDateLabel = application.TargetDate(app.now(), true, snapshot.DaysRemaining, cfg.TimezoneOffset())
			if offline {
				snapshot.MarkOffline()
			}

			return surface.Render(snapshot)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Draw the cached-data variant with the error icon")
	cmd.Flags().BoolVar(&noData, "no-data", false, "Draw the error screen shown when nothing is cached")

	return cmd
}
