package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// LogConfig selects the log format and level.
type LogConfig struct {
	// Env "prod" writes JSON; anything else writes text.
	Env string

	// Level is debug, info, warn or error. Unknown values mean info.
	Level string

	// App is added to every record so lines can be traced back to the
	// application identifier sent to the client API.
	App string
}

// sensitiveKeys are attributes that carry shopper card data.
var sensitiveKeys = map[string]bool{
	"cardnumber": true,
	"cvv":        true,
	"pincode":    true,
	"expirydate": true,
}

const redacted = "[redacted]"

// NewLogger returns the application logger writing to w.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	level := new(slog.LevelVar)
	badLevel := false
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.Set(slog.LevelInfo)
			badLevel = true
		}
	}

	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr(cfg.Env == "prod")}

	var h slog.Handler
	if cfg.Env == "prod" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h)
	if cfg.App != "" {
		logger = logger.With(slog.String("app", cfg.App))
	}
	if badLevel {
		logger.Warn("invalid log level, using info", slog.String("value", cfg.Level))
	}
	return logger
}

func replaceAttr(rfc3339 bool) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if sensitiveKeys[strings.ToLower(a.Key)] {
			return slog.String(a.Key, redacted)
		}
		if rfc3339 && len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
		}
		return a
	}
}
