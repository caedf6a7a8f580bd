package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "goalpanel",
		Short:         "goalpanel: wake, fetch goal metrics, refresh the e-paper panel, sleep",
		Long:          "goalpanel runs the wake cycle of a battery powered goal tracker: it keeps the last good snapshot in retained memory, fetches fresh metrics when the network is up, redraws the e-paper panel and goes back to sleep until the next wake.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Config file (default: search $XDG_CONFIG_HOME/goalpanel, ~/.config/goalpanel, /etc/goalpanel)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newWakeCmd(app),
		newFetchCmd(app),
		newCacheCmd(app),
		newPreviewCmd(app),
		newConfigCmd(app),
		newTokenCmd(app),
	)

	return rootCmd
}
