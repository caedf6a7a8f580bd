package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/logging"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type snapshotOutput struct {
	DaysRemaining     int     `json:"days_remaining"`
	ProgressPercent   float64 `json:"progress_percent"`
	LastUpdateTime    string  `json:"last_update_time"`
	TargetDate        string  `json:"target_date"`
	Fresh             bool    `json:"fresh"`
	LastUpdateSuccess bool    `json:"last_update_success"`
}

func toSnapshotOutput(s domain.Snapshot) snapshotOutput {
	return snapshotOutput{
		DaysRemaining:     s.DaysRemaining,
		ProgressPercent:   s.ProgressPercent,
		LastUpdateTime:    s.LastUpdateTime,
		TargetDate:        s.TargetDateLabel,
		Fresh:             s.Fresh,
		LastUpdateSuccess: s.LastUpdateSuccess,
	}
}

func writeJSON(w io.Writer, value any) error {
	data, err := jsonAPI.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newFetchCmd(app *app) *cobra.Command {
	var asJSON bool
	var mock bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Join the network and fetch the current metrics once",
		Long:  "fetch runs the network half of a wake cycle without touching the panel or the retained store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg
			if mock {
				cfg.API.Mock = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			clock := app.clock(cfg)
			dataSource := app.newDataSource(cmd.Context(), cfg, clock)

			var snapshot domain.Snapshot
			fetch := func(ctx context.Context, stage func(string)) error {
				if err := dataSource.Connect(ctx); err != nil {
					logging.WithComponent(app.log, "fetch").WithError(err).Warn("network connect failed, attempting fetch anyway")
				}
				defer func() { _ = dataSource.Disconnect() }()

				stage("Fetching goal metrics...")
				fetched, err := dataSource.FetchSnapshot(ctx)
				if err != nil {
					return err
				}
				fetched.Fresh = true
				fetched.LastUpdateSuccess = true
				fetched.TargetDateLabel = dataSource.TargetDate(fetched.DaysRemaining)
				snapshot = fetched
				return nil
			}

			var err error
			if asJSON || !isTerminal(cmd.ErrOrStderr()) {
				err = fetch(cmd.Context(), func(string) {})
			} else {
				err = runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), fetch)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toSnapshotOutput(snapshot))
			}
			return writeSnapshotText(cmd.OutOrStdout(), snapshot)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&mock, "mock", false, "Use the built-in mock payload instead of the metrics API")

	return cmd
}

func writeSnapshotText(w io.Writer, s domain.Snapshot) error {
	_, err := fmt.Fprintf(w, "days left:   %d (%s)\nprogress:    %s\ntarget date: %s\n%s\n",
		s.DaysRemaining, s.BreakdownLabel(), s.ProgressLabel(), s.TargetDateLabel, s.StatusLine())
	return err
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
