package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	sessionValue string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kcdl",
	Short: "Download classroom activity media from KinderCare",
	Long: `kcdl crawls the KinderCare classroom activity feed, builds an index of
every attached photo and video, and downloads them with their original
dates restored as file timestamps.

The session cookie is read from the --session-value flag, the
KCDL_SESSION_VALUE environment variable, or a config file. It is never
written to disk.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.kcdl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&sessionValue, "session-value", "s", "", "value of the classroom session cookie")

	rootCmd.SetVersionTemplate(`kcdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
}

// globalFlags collects the persistent flags into the config merge map
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if sessionValue != "" {
		flags["session-value"] = sessionValue
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	return flags
}
