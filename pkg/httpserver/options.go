package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Option adjusts a Server before it starts. Options with invalid arguments
// panic at construction so misconfiguration is caught at startup, not when
// the first request hits.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: listen address must not be empty")
	}
	return func(s *Server) { s.addr = addr }
}

// WithReadTimeout bounds how long reading a full request may take.
func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: read timeout must be positive")
	}
	return func(s *Server) { s.readTimeout = d }
}

// WithWriteTimeout bounds how long writing a response may take.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: write timeout must be positive")
	}
	return func(s *Server) { s.writeTimeout = d }
}

// WithIdleTimeout bounds how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: idle timeout must be positive")
	}
	return func(s *Server) { s.idleTimeout = d }
}

// WithShutdownTimeout bounds how long Shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be positive")
	}
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithServer runs the given http.Server instead of a fresh one. Its Handler
// is always overwritten by Run; address and timeouts already set on it take
// precedence over the package defaults.
func WithServer(srv *http.Server) Option {
	if srv == nil {
		panic("httpserver: nil http.Server")
	}
	return func(s *Server) { s.base = srv }
}

// WithLogger sets the logger handed to lifecycle hooks. A nil logger is
// ignored and logs stay discarded.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStartHook runs fn once the server is about to start listening.
func WithStartHook(fn func(*slog.Logger)) Option {
	if fn == nil {
		panic("httpserver: nil start hook")
	}
	return func(s *Server) { s.onStart = append(s.onStart, fn) }
}

// WithStopHook runs fn after the server has shut down.
func WithStopHook(fn func(*slog.Logger)) Option {
	if fn == nil {
		panic("httpserver: nil stop hook")
	}
	return func(s *Server) { s.onStop = append(s.onStop, fn) }
}
