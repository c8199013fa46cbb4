// Package logging builds the clog logger reclone attaches to its command
// context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chainguard-dev/clog"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func New(levelValue, formatValue string, out io.Writer) (*clog.Logger, error) {
	level, err := ParseLevel(levelValue)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(formatValue)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return clog.New(handler), nil
}

// WithLogger is New followed by clog.WithLogger.
func WithLogger(ctx context.Context, levelValue, formatValue string, out io.Writer) (context.Context, error) {
	logger, err := New(levelValue, formatValue, out)
	if err != nil {
		return ctx, err
	}
	return clog.WithLogger(ctx, logger), nil
}

func ParseLevel(value string) (slog.Level, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", value)
	}
}

func ParseFormat(value string) (Format, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid log format %q", value)
	}
}
