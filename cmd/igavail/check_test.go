package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igavail/pkg/auth"
	"igavail/pkg/config"
	"igavail/pkg/logger"
	"igavail/pkg/ui"
)

func TestCheckFlagsOnlyIncludesChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "check"}
	bindCheckFlags(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"-c", "7", "--retries", "0", "--proxy", "socks5://127.0.0.1:9050"}))

	flags := checkFlags(cmd)
	assert.Equal(t, 7, flags["concurrency"])
	assert.Equal(t, 0, flags["retries"])
	assert.Equal(t, "socks5://127.0.0.1:9050", flags["proxy"])
	assert.NotContains(t, flags, "timeout")
	assert.NotContains(t, flags, "input")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 7, cfg.Check.Concurrency)
	assert.Equal(t, 0, cfg.Check.Retries)
	assert.Equal(t, 30*time.Second, cfg.Check.Timeout)
}

func TestResolveCredentialsExplicitAccount(t *testing.T) {
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Credentials{Username: "stored", Password: "secret", LastModified: time.Now()}))

	cfg := config.DefaultConfig()
	cfg.Crawler.Username = "flag-user"
	cfg.Crawler.Password = "flag-pass"
	log := logger.NewTestLogger()

	require.NoError(t, resolveCredentials(cfg, manager, "stored", log))
	assert.Equal(t, "stored", cfg.Crawler.Username)
	assert.Equal(t, "secret", cfg.Crawler.Password)
	assert.True(t, log.HasMessage("using stored credentials"))
}

func TestResolveCredentialsMissingAccount(t *testing.T) {
	manager, _ := auth.NewMockManager()
	cfg := config.DefaultConfig()

	err := resolveCredentials(cfg, manager, "ghost", logger.NewTestLogger())
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)

	err = resolveCredentials(cfg, nil, "ghost", logger.NewTestLogger())
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
}

func TestResolveCredentialsKeepsConfigured(t *testing.T) {
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Credentials{Username: "stored", Password: "secret"}))

	cfg := config.DefaultConfig()
	cfg.Crawler.Username = "env-user"
	cfg.Crawler.Password = "env-pass"

	require.NoError(t, resolveCredentials(cfg, manager, "", logger.NewTestLogger()))
	assert.Equal(t, "env-user", cfg.Crawler.Username)
}

func TestResolveCredentialsFallsBackToStoredDefault(t *testing.T) {
	manager, store := auth.NewMockManager()
	now := time.Now()
	require.NoError(t, store.Store(&auth.Credentials{Username: "older", Password: "a", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, store.Store(&auth.Credentials{Username: "newer", Password: "b", LastModified: now}))

	cfg := config.DefaultConfig()
	require.NoError(t, resolveCredentials(cfg, manager, "", logger.NewTestLogger()))
	assert.Equal(t, "newer", cfg.Crawler.Username)
	assert.True(t, cfg.Crawler.HasCredentials())
}

func TestResolveCredentialsNothingStored(t *testing.T) {
	manager, _ := auth.NewMockManager()
	cfg := config.DefaultConfig()

	require.NoError(t, resolveCredentials(cfg, manager, "", logger.NewTestLogger()))
	assert.False(t, cfg.Crawler.HasCredentials())

	require.NoError(t, resolveCredentials(cfg, nil, "", logger.NewTestLogger()))
	assert.False(t, cfg.Crawler.HasCredentials())
}

func TestStartupErrorReportedOnce(t *testing.T) {
	for _, key := range []string{"INPUT_FILE", "OUTPUT_FILE", "CONCURRENCY", "RETRIES", "TIMEOUT", "OXYLABS_USERNAME", "OXYLABS_PASSWORD", "IGAVAIL_LOG_LEVEL", "IGAVAIL_LOG_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	ui.SetOutput(&out)
	defer ui.SetOutput(os.Stdout)

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")

	// crawler credentials keep the credential manager out of the way
	code := execute([]string{
		"check", "-i", missing, "-o", filepath.Join(dir, "hits.txt"),
		"--oxylabs-username", "u", "--oxylabs-password", "p",
		"--log-level", "error",
	})

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(out.String(), "missing.txt"), "error should be printed exactly once:\n%s", out.String())
	assert.Contains(t, out.String(), "failed to open input file")

	_, err := os.Stat(filepath.Join(dir, "hits.txt"))
	assert.True(t, os.IsNotExist(err), "no output before the input is read")
}
