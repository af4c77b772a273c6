package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := newApp()

	rootCmd := &cobra.Command{
		Use:           "tonebridge",
		Short:         "Bridge remote tone commands into a DAW plugin",
		Long:          "tonebridge runs a local WebSocket bridge that discovers amp-sim plugin instances in a host session, reports their parameter layout and applies batched parameter writes on the host thread.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $XDG_CONFIG_HOME/tonebridge/config.toml)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("profile", "", "Plugin profile file (default $XDG_CONFIG_HOME/tonebridge/profile.toml)")
	flags.String("session", "", "Simulated host session fixture (TOML)")
	app.bindFlag("log.debug", flags.Lookup("debug"))
	app.bindFlag("profile.path", flags.Lookup("profile"))
	app.bindFlag("session.fixture", flags.Lookup("session"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newScanCmd(app),
		newSendCmd(app),
		newProfileCmd(app),
	)

	return rootCmd
}
