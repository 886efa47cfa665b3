package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the handler encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type settings struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// Option configures New.
type Option func(*settings)

// WithLevel sets the minimum level that gets logged.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithTextFormatter switches to human-readable output.
func WithTextFormatter() Option {
	return func(s *settings) { s.format = FormatText }
}

// WithJSONFormatter switches to structured output for log aggregation.
func WithJSONFormatter() Option {
	return func(s *settings) { s.format = FormatJSON }
}

// WithOutput redirects log output; nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr stamps static attributes onto every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

// WithContextExtractors registers callbacks that pull request-scoped
// attributes out of the context on every log call. Nil entries are dropped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) {
		for _, ex := range extractors {
			if ex != nil {
				s.extractors = append(s.extractors, ex)
			}
		}
	}
}

func envPreset(service, env string, level slog.Level, format Format) Option {
	return func(s *settings) {
		if service == "" {
			return
		}
		s.level = level
		s.format = format
		s.attrs = append(s.attrs,
			slog.String("service", service),
			slog.String("env", env),
		)
	}
}

// WithDevelopment selects text output at debug level, tagged with the
// service name.
func WithDevelopment(service string) Option {
	return envPreset(service, "development", slog.LevelDebug, FormatText)
}

// WithStaging selects JSON output at info level, tagged with the service name.
func WithStaging(service string) Option {
	return envPreset(service, "staging", slog.LevelInfo, FormatJSON)
}

// WithProduction selects JSON output at info level, tagged with the service
// name.
func WithProduction(service string) Option {
	return envPreset(service, "production", slog.LevelInfo, FormatJSON)
}

// WithEnvironment picks the preset matching an APP_ENV-style string;
// anything unrecognized counts as development.
func WithEnvironment(env string, service string) Option {
	switch env {
	case "production", "prod":
		return WithProduction(service)
	case "staging", "stage":
		return WithStaging(service)
	default:
		return WithDevelopment(service)
	}
}

// SetAsDefault installs l as the process-wide slog default.
func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New builds a *slog.Logger from the options over production-safe defaults:
// JSON to stdout at info level. The handler is wrapped so context extractors
// run on every record.
func New(opts ...Option) *slog.Logger {
	s := &settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	hopts := &slog.HandlerOptions{Level: s.level}
	var handler slog.Handler
	if s.format == FormatText {
		handler = slog.NewTextHandler(s.output, hopts)
	} else {
		handler = slog.NewJSONHandler(s.output, hopts)
	}
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}
	return slog.New(newContextHandler(handler, s.extractors...))
}
