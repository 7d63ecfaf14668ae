package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"igavail/pkg/config"
	errs "igavail/pkg/errors"
	"igavail/pkg/logger"

	"github.com/tidwall/gjson"
)

// CrawlerClient checks usernames through the Oxylabs Real-Time Crawler API.
// The crawler fetches the profile page and reports the status it saw.
type CrawlerClient struct {
	httpClient *http.Client
	endpoint   string
	username   string
	password   string
	source     string
	timeout    time.Duration
	logger     logger.Logger
}

type crawlerQuery struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	Parse  bool   `json:"parse"`
}

// NewCrawlerClient creates a crawler client. Credentials are required.
func NewCrawlerClient(cfg config.CrawlerConfig, timeout time.Duration, log logger.Logger) (*CrawlerClient, error) {
	if !cfg.HasCredentials() {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "crawler credentials are required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultCrawlerEndpoint
	}
	source := cfg.Source
	if source == "" {
		source = "universal"
	}

	httpClient, err := newHTTPClient(timeout, "")
	if err != nil {
		return nil, err
	}

	return &CrawlerClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		username:   cfg.Username,
		password:   cfg.Password,
		source:     source,
		timeout:    timeout,
		logger:     log.WithField("transport", "crawler"),
	}, nil
}

// Name identifies the strategy
func (c *CrawlerClient) Name() string { return "crawler" }

// Check asks the crawler to fetch the profile page of username
func (c *CrawlerClient) Check(ctx context.Context, username string) (Probe, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(crawlerQuery{
		Source: c.source,
		URL:    ProfileURL(username),
		Parse:  false,
	})
	if err != nil {
		return Probe{}, errs.Wrap(errs.ErrorTypeUnknown, 0, "failed to encode crawler query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Probe{}, errs.Wrap(errs.ErrorTypeInvalidRequest, 0, "failed to create request", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := doRequest(c.httpClient, req, c.logger)
	if err != nil {
		return Probe{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainBody(resp)
		return Probe{}, c.statusError(username, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return Probe{}, err
	}

	return c.parse(username, body)
}

// statusError classifies a non-2xx answer from the crawler API itself.
// It says nothing about the username.
func (c *CrawlerClient) statusError(username string, code int) error {
	errType := errs.FromStatusCode(code)
	fields := map[string]interface{}{
		"username": username,
		"status":   code,
		"type":     string(errType),
	}

	if errs.IsRetryable(errType) {
		c.logger.DebugWithFields("crawler API returned transient status", fields)
	} else {
		c.logger.ErrorWithFields("crawler API rejected request", fields)
	}

	return errs.New(errType, code, fmt.Sprintf("crawler API returned status %d", code))
}

// parse reads the embedded page status. The document either is the result
// itself or wraps it in results[0]; the status is status_code, falling back to status.
func (c *CrawlerClient) parse(username string, body []byte) (Probe, error) {
	if !gjson.ValidBytes(body) {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.DebugWithFields("failed to parse crawler response", map[string]interface{}{
			"username":     username,
			"body_preview": preview,
		})
		return Probe{}, errs.New(errs.ErrorTypeParsing, 0, "crawler response is not valid JSON")
	}

	result := gjson.ParseBytes(body)
	if first := result.Get("results.0"); first.Exists() {
		result = first
	}

	status := int(result.Get("status_code").Int())
	if status == 0 {
		status = int(result.Get("status").Int())
	}

	switch {
	case status == http.StatusNotFound:
		return Probe{Availability: Available, StatusCode: status}, nil
	case status == 0:
		c.logger.WarnWithFields("crawler response carried no status, treating as unavailable", map[string]interface{}{
			"username": username,
		})
		return Probe{Availability: Unavailable}, nil
	default:
		return Probe{Availability: Unavailable, StatusCode: status}, nil
	}
}
