package letchain

import "log/slog"

const (
	VERBOSE_DPT        = false
	VERBOSE_HEURISTIC  = false
	VERBOSE_EXPERIMENT = false
)

var logger = slog.Default().With(slog.String("component", "letchain"))

// SetLogger replaces the logger used for analysis events.
func SetLogger(l *slog.Logger) {
	logger = l.With(slog.String("component", "letchain"))
}
