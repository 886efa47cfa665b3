// Package logger builds context-aware slog loggers for service binaries.
//
// New assembles a *slog.Logger from functional options: output format and
// destination, minimum level, static attributes, and ContextExtractor
// callbacks that stamp request-scoped values (an identity ID, a request ID)
// onto every record pulled from the context. WithEnvironment maps an
// APP_ENV-style string onto per-environment presets so main stays a
// one-liner:
//
//	log := logger.New(logger.WithEnvironment(os.Getenv("APP_ENV"), "auth-service"))
//	logger.SetAsDefault(log)
//
// attr.go holds small constructors (Error, IdentityID, Component, ...) that
// keep attribute keys consistent across the codebase; Error and Errors
// swallow nil so they can be attached unconditionally.
package logger
