package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	prefsPath  string
)

var rootCmd = &cobra.Command{
	Use:           "flowgate",
	Short:         "Attribution-gated endpoint resolution and display-mode flow",
	Long:          "Runs the startup flow that decides between original content and a resolved web endpoint, and inspects or resets its persisted state.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config path (default ~/.config/flowgate/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "prefs path (default ~/.config/flowgate/prefs.toml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flowgate: %v\n", err)
		os.Exit(1)
	}
}
