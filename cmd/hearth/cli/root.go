package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	appVersion string // set in Execute, used by serve for the health endpoint
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hearth",
		Short: "Token-authenticated posts API with built-in rate limiting",
		Long: `Hearth serves a small JSON API for user-authored posts.

Callers authenticate with basic credentials or a bearer access token, tokens
are minted and renewed through the login endpoint, and every request passes
through per-caller rate limiting. Users are managed from this CLI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hearth.yaml)")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newFixturesCmd())
	cmd.AddCommand(newSweepCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("hearth")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.hearth")
	}

	viper.SetEnvPrefix("HEARTH")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
