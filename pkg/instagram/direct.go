package instagram

import (
	"context"
	"net/http"
	"time"

	"igavail/pkg/config"
	errs "igavail/pkg/errors"
	"igavail/pkg/logger"
)

// DirectClient requests the public profile page itself. Instagram often
// answers 200 with a login wall, so verdicts are less reliable than the crawler's.
type DirectClient struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	timeout    time.Duration
	logger     logger.Logger
}

// NewDirectClient creates a direct client, optionally through a proxy
func NewDirectClient(cfg config.DirectConfig, timeout time.Duration, log logger.Logger) (*DirectClient, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient, err := newHTTPClient(timeout, cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &DirectClient{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		baseURL: BaseURL,
		timeout: timeout,
		logger:  log.WithField("transport", "direct"),
	}, nil
}

// Name identifies the strategy
func (c *DirectClient) Name() string { return "direct" }

// Check fetches the profile page. 404 means available, anything else unavailable.
func (c *DirectClient) Check(ctx context.Context, username string) (Probe, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL(c.baseURL, username), nil)
	if err != nil {
		return Probe{}, errs.Wrap(errs.ErrorTypeInvalidRequest, 0, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := doRequest(c.httpClient, req, c.logger)
	if err != nil {
		return Probe{}, err
	}
	drainBody(resp)

	if resp.StatusCode == http.StatusNotFound {
		return Probe{Availability: Available, StatusCode: resp.StatusCode}, nil
	}
	return Probe{Availability: Unavailable, StatusCode: resp.StatusCode}, nil
}
