package ciutil

import "log/slog"

// TestDatabaseURL returns the PostgreSQL URL integration tests should use,
// or "" when none is configured and tests must start their own server.
func TestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
	if dbURL != "" && logger != nil {
		logger.Info("using external test database",
			"url", MaskSensitiveValue(dbURL),
			"ci", IsCI())
	}
	return dbURL
}
