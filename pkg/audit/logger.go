package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// contextExtractor extracts string values from context.
// It returns (value, found) where found indicates if extraction succeeded.
type contextExtractor func(context.Context) (string, bool)

type logger struct {
	storage             Storage
	identityIDExtractor contextExtractor
	ipExtractor         contextExtractor
}

// Option configures the logger.
type Option func(*logger)

// WithIdentityIDExtractor pulls the acting identity from context when the
// caller does not pass WithIdentity explicitly.
func WithIdentityIDExtractor(fn contextExtractor) Option {
	return func(l *logger) {
		l.identityIDExtractor = fn
	}
}

// WithIPExtractor pulls the caller's network origin from context.
func WithIPExtractor(fn contextExtractor) Option {
	return func(l *logger) {
		l.ipExtractor = fn
	}
}

// NewLogger creates a new audit logger backed by the given storage.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &logger{storage: storage}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultSuccess, "", opts)
}

func (l *logger) LogFailure(ctx context.Context, action string, cause error, opts ...EventOption) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return l.store(ctx, action, ResultFailure, msg, opts)
}

func (l *logger) store(ctx context.Context, action string, result Result, errMsg string, opts []EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.New().String()
	event.Action = action
	event.Result = result
	event.Error = errMsg
	event.CreatedAt = time.Now()

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if err := l.storage.Store(ctx, event); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (l *logger) eventFromContext(ctx context.Context) Event {
	event := Event{}

	if l.identityIDExtractor != nil {
		if id, ok := l.identityIDExtractor(ctx); ok {
			event.IdentityID = id
		}
	}
	if l.ipExtractor != nil {
		if ip, ok := l.ipExtractor(ctx); ok {
			event.IP = ip
		}
	}

	return event
}
