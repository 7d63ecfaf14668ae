package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"igavail/pkg/auth"
	"igavail/pkg/checker"
	"igavail/pkg/config"
	"igavail/pkg/logger"
	"igavail/pkg/ui"
	"igavail/pkg/username"
)

var (
	// Check command flags
	inputFile       string
	outputFile      string
	concurrency     int
	retries         int
	timeoutSeconds  int
	oxylabsUsername string
	oxylabsPassword string
	accountName     string
	rateLimit       int
	proxyURL        string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a list of usernames for availability",
	Long: `Check every username in the input file and append the available ones to
the output file.

Invalid candidates (longer than 30 characters, leading or trailing '.', characters
outside letters, digits, '.' and '_') are skipped without a request.

Crawler credentials are taken from, in order:
  - --oxylabs-username / --oxylabs-password
  - OXYLABS_USERNAME / OXYLABS_PASSWORD
  - the config file
  - a stored account (see 'igavail auth login')

Without credentials igavail falls back to direct profile requests.`,
	Example: `  # Check usernames.txt and append hits to hits.txt
  igavail check

  # Custom files and 10 workers
  igavail check -i candidates.txt -o free.txt -c 10

  # Use a stored crawler account
  igavail check --account my-oxylabs-user

  # Direct requests through a SOCKS proxy, at most 60 per minute
  igavail check --proxy socks5://127.0.0.1:9050 --rate-limit 60`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	bindCheckFlags(checkCmd)
}

func bindCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "file with one candidate username per line (default usernames.txt)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "file available usernames are appended to (default hits.txt)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 50, "number of concurrent checks")
	cmd.Flags().IntVar(&retries, "retries", 3, "retries per username after the first attempt")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 30, "per-request timeout in seconds")
	cmd.Flags().StringVar(&oxylabsUsername, "oxylabs-username", "", "crawler API username")
	cmd.Flags().StringVar(&oxylabsPassword, "oxylabs-password", "", "crawler API password")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use a stored crawler account")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "maximum requests per minute across all workers (0 = unlimited)")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "proxy for direct requests (http, https, socks5)")
}

// checkFlags collects the flags the user actually set
func checkFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	f := cmd.Flags()

	if f.Changed("input") {
		flags["input"] = inputFile
	}
	if f.Changed("output") {
		flags["output"] = outputFile
	}
	if f.Changed("concurrency") {
		flags["concurrency"] = concurrency
	}
	if f.Changed("retries") {
		flags["retries"] = retries
	}
	if f.Changed("timeout") {
		flags["timeout"] = timeoutSeconds
	}
	if f.Changed("oxylabs-username") {
		flags["oxylabs-username"] = oxylabsUsername
	}
	if f.Changed("oxylabs-password") {
		flags["oxylabs-password"] = oxylabsPassword
	}
	if f.Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if f.Changed("proxy") {
		flags["proxy"] = proxyURL
	}
	return flags
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, checkFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("run_id", uuid.NewString())
	log.WithField("version", version).Info("igavail starting")

	var manager *auth.Manager
	if accountName != "" || !cfg.Crawler.HasCredentials() {
		manager, err = auth.NewManager()
		if err != nil {
			log.WithError(err).Debug("credential manager unavailable")
		}
	}
	if err := resolveCredentials(cfg, manager, accountName, log); err != nil {
		ui.PrintInfo("Stored accounts", "Use 'igavail auth list' to see them")
		return fmt.Errorf("account %q: %w", accountName, err)
	}

	usernames, err := username.LoadFile(cfg.Check.InputFile)
	if err != nil {
		return err
	}
	ui.PrintInfo("Input", fmt.Sprintf("%s (%d usernames)", cfg.Check.InputFile, len(usernames)))

	c, err := checker.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize checker: %w", err)
	}
	ui.PrintInfo("Transport", c.Transport().Name())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintHighlight("[CHECKING USERNAMES]")

	if _, err := c.Run(ctx, usernames); err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Run interrupted; hits written so far are kept")
		}
		return err
	}

	return nil
}

// resolveCredentials fills cfg.Crawler from the credential manager. An explicit
// account must exist; otherwise stored credentials only fill in when none are
// configured. manager may be nil.
func resolveCredentials(cfg *config.Config, manager *auth.Manager, account string, log logger.Logger) error {
	if account != "" {
		if manager == nil {
			return fmt.Errorf("%w: %s", auth.ErrCredentialsNotFound, account)
		}
		creds, err := manager.Retrieve(account)
		if err != nil {
			return err
		}
		cfg.Crawler.Username = creds.Username
		cfg.Crawler.Password = creds.Password
		log.WithField("account", creds.Username).Info("using stored credentials")
		return nil
	}

	if cfg.Crawler.HasCredentials() || manager == nil {
		return nil
	}

	creds, err := manager.RetrieveDefault()
	if err != nil {
		return nil
	}
	cfg.Crawler.Username = creds.Username
	cfg.Crawler.Password = creds.Password
	log.WithField("account", creds.Username).Info("using stored credentials")
	return nil
}
