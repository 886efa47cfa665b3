package logger

import (
	"log/slog"
	"strconv"
)

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error". A nil err yields an empty Attr,
// so callers can attach it unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors", indexed by
// position. All-nil input yields an empty Attr.
func Errors(errs ...error) slog.Attr {
	grouped := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			grouped = append(grouped, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(grouped) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(grouped...)}
}

// IdentityID records the acting identity under the key "identity_id".
func IdentityID(id string) slog.Attr {
	return slog.String("identity_id", id)
}

// RequestID records the request identifier under the key "request_id".
// A nil id yields an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Component records which subsystem emitted the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records how long an operation took under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
