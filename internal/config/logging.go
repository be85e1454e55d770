package config

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs a JSON slog handler on stdout as the default logger.
// Lambda forwards stdout to CloudWatch Logs.
func SetupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
