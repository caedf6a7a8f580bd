package cmd

import (
	"fmt"
	"time"

	statusadapter "github.com/bnema/goalpanel/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

const cacheStaleAfter = 2 * time.Hour

func newCacheCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the retained snapshot",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newCacheShowCmd(app), newCacheClearCmd(app))
	return cmd
}

type cacheOutput struct {
	Store    string          `json:"store"`
	HasData  bool            `json:"has_data"`
	SavedAt  *time.Time      `json:"saved_at,omitempty"`
	Snapshot *snapshotOutput `json:"snapshot,omitempty"`
}

func newCacheShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the snapshot kept for offline wakes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snapshot, ok := store.cache.Load()
			cacheStatus := statusadapter.CacheStatus{
				Store:    store.path,
				HasData:  ok,
				Snapshot: snapshot,
			}
			if ok {
				cacheStatus.SavedAt = store.SavedAt()
			}

			if asJSON {
				out := cacheOutput{Store: store.path, HasData: ok}
				if ok {
					encoded := toSnapshotOutput(snapshot)
					out.Snapshot = &encoded
					if !cacheStatus.SavedAt.IsZero() {
						out.SavedAt = &cacheStatus.SavedAt
					}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			rendered, err := statusadapter.Render(cacheStatus, statusadapter.RenderOptions{
				Now:        app.now(),
				StaleAfter: cacheStaleAfter,
			})
			if err != nil {
				return fmt.Errorf("render cache status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func newCacheClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the retained snapshot, as a power loss would",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.cache.Clear(); err != nil {
				return fmt.Errorf("clear retained snapshot: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "retained snapshot cleared")
			return err
		},
	}
}
