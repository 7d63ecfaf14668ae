// Package logger provides structured logging for igavail.
//
// It wraps zerolog behind a small Logger interface so components can be handed
// a logger (or a TestLogger in tests) instead of reaching for a global:
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("username", "some.name").Info("check started")
//	log.InfoWithFields("run finished", map[string]interface{}{
//	    "available": 3,
//	    "duration":  time.Second,
//	})
//
// Console output goes to stderr so stdout stays free for per-username results.
// Setting LoggingConfig.File adds a JSON log file alongside the console.
package logger
