// Package httpserver wraps net/http with the lifecycle plumbing every
// service binary repeats: graceful shutdown on context cancellation or
// SIGINT/SIGTERM, env-driven timeouts, start/stop hooks, and liveness and
// readiness probe handlers.
//
// A Server is built with New (functional options) or NewFromConfig (env
// config parsed by the caller) and started with Run, which blocks until the
// server stops. Run wraps startup failures with ErrStart and Shutdown wraps
// drain failures with ErrShutdown, so callers can branch with errors.Is.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStartHook(func(l *slog.Logger) {
//			l.Info("listening", slog.String("addr", cfg.Addr))
//		}),
//	)
//	return srv.Run(ctx, mux)
//
// HealthCheckHandler doubles as both probe kinds: with no dependency checks
// it answers liveness, with checks it answers readiness and fails when any
// dependency does.
package httpserver
