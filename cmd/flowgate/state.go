package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/five82/flowgate/internal/app"
	"github.com/five82/flowgate/internal/obfuscate"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the decoded persisted flow state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := app.OpenConfigured(ctx, configPath)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := app.Inspect(ctx, store, obfuscate.Default)
		if err != nil {
			return err
		}
		return app.WriteReport(cmd.OutOrStdout(), report)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the cached endpoint, path token and flags",
	Long:  "Clears everything the flow persists except the install id, so the next run behaves like a first launch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := app.OpenConfigured(ctx, configPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := app.Reset(ctx, store); err != nil {
			return eris.Wrap(err, "reset state")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "flow state cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd, resetCmd)
}
