// Package log provides the slog based logger used by imageloader.
//
// Progress messages (fetching the page, each resolved image, each download)
// are logged at Info. Candidate probes, jitter delays and skipped elements
// are logged at Debug and only appear with --debug.
//
// The SecureHandler masks credentials before they are written: values of
// headers such as Cookie and Authorization, bearer and basic tokens, and
// passwords or signatures embedded in URLs.
//
//	logger := log.NewSecureLogger(os.Stderr, cfg.Debug)
//	logger.Info("downloading", "url", "https://cdn.example.com/a.png?sig=abc")
//	// url=https://cdn.example.com/a.png?sig=%2A%2A%2AREDACTED%2A%2A%2A
package log
