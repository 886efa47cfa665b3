package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event represents a single audit log entry. Events carry identity, action
// and outcome only; secret material and plaintext codes never enter an event.
type Event struct {
	ID         string         `json:"id"`
	IdentityID string         `json:"identity_id"`
	Action     string         `json:"action"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	IP         string         `json:"ip,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks if the event has all required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// WithIdentity sets the identity the event concerns.
func WithIdentity(identityID string) EventOption {
	return func(e *Event) {
		e.IdentityID = identityID
	}
}

// WithIP records the caller's network origin.
func WithIP(ip string) EventOption {
	return func(e *Event) {
		e.IP = ip
	}
}

// WithMetadata attaches a single metadata key/value pair.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// Storage persists audit events. Implementations decide on durability;
// failures are infrastructure errors, not part of the security taxonomy.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// Logger records security-relevant actions with their outcome.
type Logger interface {
	// Log records a successful action.
	Log(ctx context.Context, action string, opts ...EventOption) error
	// LogFailure records a failed action together with the failure cause.
	LogFailure(ctx context.Context, action string, cause error, opts ...EventOption) error
}
