// Package log provides logging utilities.
package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"

	"github.com/ghettovoice/sinkuri/auth"
	"github.com/ghettovoice/sinkuri/uri"
)

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	// net/url keeps the password in the userinfo, never log it as is
	slogformatter.FormatByType(func(u *url.URL) slog.Value {
		if u == nil {
			return slog.StringValue("<nil>")
		}
		return slog.StringValue(u.Redacted())
	}),
	slogformatter.FormatByType(func(u url.URL) slog.Value {
		return slog.StringValue(u.Redacted())
	}),
	slogformatter.FormatByType(func(u uri.URI) slog.Value {
		return slog.StringValue(u.Redacted())
	}),
	slogformatter.FormatByType(func(b auth.Basic) slog.Value {
		return b.LogValue()
	}),
)

// New creates a logger writing to w.
// The dev flag selects the colored multi-line developer output.
func New(w io.Writer, level slog.Leveler, dev bool) *slog.Logger {
	if dev {
		return slog.New(newHandler(
			devslog.NewHandler(w, &devslog.Options{
				HandlerOptions: &slog.HandlerOptions{
					AddSource: true,
					Level:     level,
				},
				SortKeys:   true,
				TimeFormat: time.RFC3339Nano,
			}),
		))
	}
	return slog.New(newHandler(
		console.NewHandler(w, &console.HandlerOptions{
			AddSource:  level == slog.LevelDebug,
			Level:      level,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}

// Def is a default logger.
var Def = New(os.Stderr, slog.LevelInfo, false)

// Dev is a developer logger.
var Dev = New(os.Stderr, slog.LevelDebug, true)

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a noop logger.
var Noop = slog.New(noopHandler{})

// OrNoop returns l or [Noop] if l is nil.
func OrNoop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Noop
	}
	return l
}

type stringValue[T ~string | ~[]byte] struct {
	v T
}

func (v stringValue[T]) LogValue() slog.Value {
	return slog.StringValue(string(v.v))
}

// StringValue returns a value logger that formats v as string.
func StringValue[T ~string | ~[]byte](v T) slog.LogValuer { return stringValue[T]{v} }
