// Package instagram decides whether Instagram usernames are taken.
//
// Two strategies implement Transport:
//
//   - CrawlerClient posts the profile URL to the Oxylabs Real-Time Crawler and
//     reads the status the crawler observed. A 404 means the name is free.
//   - DirectClient requests the profile page itself, optionally through an
//     HTTP or SOCKS5 proxy. It is the fallback when no crawler account is set up.
//
// NewTransport selects one of them from configuration:
//
//	transport, err := instagram.NewTransport(cfg, log)
//	if err != nil {
//		return err
//	}
//	probe, err := transport.Check(ctx, "some.name")
//	if err != nil {
//		// *errors.Error; retry transient types
//	}
//	if probe.Availability == instagram.Available {
//		// write it down
//	}
//
// A non-2xx answer from the crawler API is an error, never a verdict: 429 and
// 5xx are transient, 401/403 and other 4xx are permanent.
package instagram
