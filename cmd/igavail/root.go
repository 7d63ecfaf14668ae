package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igavail/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igavail",
	Short: "Check which Instagram usernames are free to register",
	Long: `igavail reads candidate usernames from a file, probes each profile URL
concurrently and appends the available ones to an output file.

Checks go through the Oxylabs realtime crawler when credentials are
configured, otherwise through direct profile requests.

Running igavail without a subcommand is the same as 'igavail check'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetNoColor(true)
		}
		ui.SetQuietMode(quiet)

		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	RunE: runCheck,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command tree with args and returns the exit code.
// Commands return their errors; this is the only place they are printed.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./.igavail.yaml or ~/.config/igavail/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print available usernames, errors and the summary")

	// check flags also live on root so a bare 'igavail -i names.txt' works
	bindCheckFlags(rootCmd)

	rootCmd.SetVersionTemplate(`igavail {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the explicitly set persistent flags in config merge form
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		flags["log-file"] = logFile
	}
	return flags
}
