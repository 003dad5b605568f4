package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/flowgate/internal/app"
)

var runHeadless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the flow with the status view",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx, app.Options{
			ConfigPath: configPath,
			PrefsPath:  prefsPath,
			Headless:   runHeadless,
		})
	},
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "skip the status view and log state changes only")
	rootCmd.AddCommand(runCmd)
}
