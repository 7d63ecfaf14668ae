package instagram

import (
	"context"
	"fmt"

	"igavail/pkg/config"
	"igavail/pkg/logger"
)

// Availability is the verdict a transport reached for one username
type Availability int

const (
	// Unavailable means the profile exists or the status was not a clean 404
	Unavailable Availability = iota
	// Available means Instagram answered 404 for the profile
	Available
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	default:
		return "unavailable"
	}
}

// Probe is the outcome of one successful check
type Probe struct {
	Availability Availability
	// StatusCode is the profile page status observed, 0 when the response carried none
	StatusCode int
}

// Transport checks a single username.
// A nil error means the Probe is authoritative; errors are *errors.Error where typed.
type Transport interface {
	Check(ctx context.Context, username string) (Probe, error)
	Name() string
}

// NewTransport picks the crawler API when credentials are configured and the
// direct strategy otherwise. The choice is fixed for the lifetime of the transport.
func NewTransport(cfg *config.Config, log logger.Logger) (Transport, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if cfg.Crawler.HasCredentials() {
		log.InfoWithFields("using crawler API", map[string]interface{}{
			"endpoint": cfg.Crawler.Endpoint,
		})
		client, err := NewCrawlerClient(cfg.Crawler, cfg.Check.Timeout, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create crawler client: %w", err)
		}
		return client, nil
	}

	log.Warn("crawler credentials not provided, falling back to direct requests (may be inaccurate)")
	client, err := NewDirectClient(cfg.Direct, cfg.Check.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create direct client: %w", err)
	}
	return client, nil
}
