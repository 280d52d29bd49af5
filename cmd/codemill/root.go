package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd mirrors the teacher's bare root command: persistent config/debug
// flags bound through viper, child commands doing the real work.
var rootCmd = &cobra.Command{
	Use:     "codemill",
	Short:   "codemill - language-aware code analysis and refactoring engine",
	Version: "0.1.0",
}

// Execute runs the root command and returns its error to the caller; this
// package does not map that error onto a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides CODEMILL_CONFIG and the default search path)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if env := os.Getenv("CODEMILL_CONFIG"); env != "" && cfgFile == "" {
		viper.SetConfigFile(env)
	}
	if err := viper.ReadInConfig(); err == nil && viper.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}
