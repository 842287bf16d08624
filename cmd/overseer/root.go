package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"overseer/internal/config"
)

var exit = os.Exit
var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "overseer",
	Short: "Overseer: orchestration core for multi-agent feature development",
	Long: `Overseer tracks features through their lifecycle, dispatches eligible
work to an agent executor under a concurrency ceiling, resolves
inter-feature dependencies, detects orphaned branches, and recovers
interrupted work across restarts.`,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./overseer.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("project", "p", ".", "Project directory")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.Load(cfgFile)
}
