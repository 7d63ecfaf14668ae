package instagram

import (
	"net/http"
	"testing"
	"time"

	"igavail/pkg/config"
	"igavail/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransportSelection(t *testing.T) {
	t.Run("credentials select the crawler", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Crawler.Username = "u"
		cfg.Crawler.Password = "p"

		transport, err := NewTransport(cfg, logger.NewTestLogger())
		require.NoError(t, err)
		assert.IsType(t, &CrawlerClient{}, transport)
	})

	t.Run("no credentials fall back to direct", func(t *testing.T) {
		log := logger.NewTestLogger()
		transport, err := NewTransport(config.DefaultConfig(), log)
		require.NoError(t, err)
		assert.IsType(t, &DirectClient{}, transport)
		assert.True(t, log.HasMessageContaining("may be inaccurate"))
	})

	t.Run("half credentials fall back to direct", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Crawler.Username = "u"

		transport, err := NewTransport(cfg, logger.NewTestLogger())
		require.NoError(t, err)
		assert.Equal(t, "direct", transport.Name())
	})

	t.Run("bad proxy is reported", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Direct.ProxyURL = "ftp://proxy:21"

		_, err := NewTransport(cfg, logger.NewTestLogger())
		assert.Error(t, err)
	})
}

func TestNewHTTPClientProxy(t *testing.T) {
	client, err := newHTTPClient(5*time.Second, "")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	client, err = newHTTPClient(time.Second, "http://proxy.local:3128")
	require.NoError(t, err)
	transport := client.Transport.(*http.Transport)
	require.NotNil(t, transport.Proxy)
	req, _ := http.NewRequest(http.MethodGet, "https://www.instagram.com/x/", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", proxyURL.Host)

	client, err = newHTTPClient(time.Second, "socks5://127.0.0.1:9050")
	require.NoError(t, err)
	transport = client.Transport.(*http.Transport)
	assert.Nil(t, transport.Proxy)
	assert.NotNil(t, transport.DialContext)

	_, err = newHTTPClient(time.Second, "ftp://proxy:21")
	assert.Error(t, err)
}

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/some_user/", ProfileURL("some_user"))
	assert.Equal(t, "", ProfileURL(""))
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "unavailable", Unavailable.String())
}
