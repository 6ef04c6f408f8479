package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// LevelTrace is more verbose than slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// MaskValue replaces redacted values.
const MaskValue = "***REDACTED***"

// redactedKeys are attribute keys whose values are always masked.
var redactedKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"token":               true,
	"session":             true,
}

// redactedKeywords mask any key that contains them, e.g. "access_token".
var redactedKeywords = []string{"password", "secret", "token", "cookie", "auth"}

// RedactingHandler masks sensitive attributes before passing records on.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and forwards it.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs and returns a derived handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a derived handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, g := range group {
			redacted[i] = redactAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isRedactedKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if s, ok := redactURL(a.Value.String()); ok {
			return slog.String(a.Key, s)
		}
	}
	return a
}

func isRedactedKey(key string) bool {
	lower := strings.ToLower(key)
	if redactedKeys[lower] {
		return true
	}
	for _, kw := range redactedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// redactURL masks the password of a URL with userinfo. It reports false
// when s is not such a URL.
func redactURL(s string) (string, bool) {
	if !strings.Contains(s, "@") || !strings.Contains(s, "://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return "", false
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return "", false
	}
	return u.Redacted(), true
}

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level to debug; otherwise only warnings and errors are shown.
	Verbose bool

	// Trace lowers the level to LevelTrace. It implies Verbose.
	Trace bool

	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool
}

// Level returns the minimum level selected by o.
func (o Options) Level() slog.Level {
	switch {
	case o.Trace:
		return LevelTrace
	case o.Verbose:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// NewLogger returns a redacting logger writing to w.
func NewLogger(w io.Writer, o Options) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: o.Level(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewRedactingHandler(handler))
}

// Discard returns a logger that drops everything. Handy as a default in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
