package config

import (
	"io"
	"log/slog"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds a logger writing to w. Unknown levels fall back to info
// and any format other than "json" gives the text handler.
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	level, ok := levels[levelStr]
	if !ok {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// Logger builds the logger described by c.
func (c Log) Logger(w io.Writer) *slog.Logger {
	return NewLogger(c.Level, c.Format, w)
}
