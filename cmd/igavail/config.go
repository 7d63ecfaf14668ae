package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igavail/pkg/config"
	"igavail/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igavail configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (including a .env file)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.igavail.yaml'
unless a different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources.

The crawler password is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and report errors and warnings.

This command checks:
  - YAML syntax
  - Value ranges
  - Proxy and endpoint URLs
  - Input file and output directory accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# igavail configuration file
#
# Every option can also be set through the environment, for example
# CONCURRENCY, RETRIES, OXYLABS_USERNAME or IGAVAIL_LOG_LEVEL.

check:
  # One candidate per line
  input_file: usernames.txt

  # Available usernames are appended here
  output_file: hits.txt

  # Number of concurrent checks
  concurrency: 50

  # Retries after the first attempt
  retries: 3

  # Per-request timeout
  timeout: 30s

  # Longest accepted candidate; 0 disables the cap
  max_username_length: 30

# Oxylabs realtime crawler. Leave the credentials empty to use direct requests,
# or store them with 'igavail auth login'.
crawler:
  endpoint: https://realtime.oxylabs.io/v1/queries
  username: ""
  password: ""
  source: universal

direct:
  # Defaults to a desktop Chrome user agent
  # user_agent: ""
  # http://, https://, socks5:// or socks5h://
  proxy_url: ""

retry:
  base_delay: 1s
  max_delay: 10s
  multiplier: 2.0
  jitter_factor: 0.1

rate_limit:
  # 0 means unlimited
  requests_per_minute: 0
  burst_size: 1

logging:
  # debug, info, warn, error, disabled
  level: info
  # Optional JSON log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igavail.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("config file %s already exists", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file or run 'igavail auth login' to add crawler credentials")
	fmt.Println("2. Run 'igavail config validate' to check the configuration")
	fmt.Println("3. Start checking with 'igavail check -i usernames.txt'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	displayCfg := *cfg
	if displayCfg.Crawler.Password != "" {
		displayCfg.Crawler.Password = "********"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings, problems []string

	if !cfg.Crawler.HasCredentials() {
		warnings = append(warnings, "crawler credentials not configured; direct requests may be inaccurate")
	}
	if _, err := os.Stat(cfg.Check.InputFile); err != nil {
		warnings = append(warnings, fmt.Sprintf("input file not readable: %v", err))
	}
	if dir := filepath.Dir(cfg.Check.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintWarning("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Input file: %s\n", cfg.Check.InputFile)
	fmt.Printf("  Output file: %s\n", cfg.Check.OutputFile)
	fmt.Printf("  Concurrency: %d\n", cfg.Check.Concurrency)
	fmt.Printf("  Retries: %d\n", cfg.Check.Retries)
	fmt.Printf("  Timeout: %s\n", cfg.Check.Timeout)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	} else {
		fmt.Println("  Rate limit: unlimited")
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
