package log

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// DebugEnv is set to true by Azure Pipelines when a run is started with
// diagnostics enabled.
const DebugEnv = "SYSTEM_DEBUG"

func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// InitLogger replaces the default logger. Debug output is enabled by the
// flag or by SYSTEM_DEBUG.
func InitLogger(debug bool) {
	slog.SetDefault(NewLogger(os.Stderr, debug || DebugFromEnv()))
}

func DebugFromEnv() bool {
	v, err := strconv.ParseBool(os.Getenv(DebugEnv))
	return err == nil && v
}
