package instagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	errs "igavail/pkg/errors"
	"igavail/pkg/logger"

	"golang.org/x/net/proxy"
)

// maxBodySize bounds how much of a response is read
const maxBodySize = 10 << 20

// newHTTPClient builds a client bounded by timeout. proxyURL may be empty,
// http(s):// or socks5(h)://.
func newHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}

		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			socks, err := proxy.FromURL(u, dialer)
			if err != nil {
				return nil, fmt.Errorf("create socks dialer: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := socks.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return socks.Dial(network, addr)
				}
			}
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// doRequest sends req and logs it. Transport failures come back typed.
func doRequest(client *http.Client, req *http.Request, log logger.Logger) (*http.Response, error) {
	start := time.Now()
	log.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		log.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, classifyTransportError(req.Context(), err)
	}

	log.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// classifyTransportError maps a client.Do failure onto the error taxonomy.
// Cancellation of the caller's context is returned untyped so it is never retried.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errs.Wrap(errs.ErrorTypeTimeout, 0, "request timed out", err)
	}

	return errs.Wrap(errs.ErrorTypeNetwork, 0, "network error", err)
}

// readBody reads at most maxBodySize bytes and closes the body
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", classifyTransportError(resp.Request.Context(), err))
	}
	return body, nil
}

// drainBody discards the body so the connection can be reused
func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	resp.Body.Close()
}
