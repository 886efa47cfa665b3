package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"

	modauth "github.com/servercraft/authkit/modules/auth"
	"github.com/servercraft/authkit/pkg/audit"
	"github.com/servercraft/authkit/pkg/clientip"
	"github.com/servercraft/authkit/pkg/httpserver"
	"github.com/servercraft/authkit/pkg/logger"
	"github.com/servercraft/authkit/pkg/pg"
	"github.com/servercraft/authkit/pkg/ratelimiter"
	"github.com/servercraft/authkit/pkg/redis"
	svcauth "github.com/servercraft/authkit/svc/auth"
	"github.com/servercraft/authkit/svc/twofactor"
)

func main() {
	log := logger.New(logger.WithEnvironment(os.Getenv("APP_ENV"), "authkit"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var pgCfg pg.Config
	if err := env.Parse(&pgCfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	if err := env.Parse(&httpCfg); err != nil {
		return err
	}
	tfCfg, err := twofactor.LoadConfig()
	if err != nil {
		return err
	}
	authCfg, err := svcauth.LoadConfig()
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	auditLog := audit.NewLogger(audit.NewPostgresStorage(pool),
		audit.WithIPExtractor(func(ctx context.Context) (string, bool) {
			ip := clientip.GetIPFromContext(ctx)
			return ip, ip != ""
		}),
	)

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	// Rate limit state is shared across instances only when Redis is
	// configured; a single instance runs fine on the in-memory store.
	var rlStore ratelimiter.Store = ratelimiter.NewMemoryStore()
	if os.Getenv("REDIS_URL") != "" {
		var redisCfg redis.Config
		if err := env.Parse(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		rlStore = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("authkit:ratelimit:"))
		healthchecks = append(healthchecks, redis.Healthcheck(client))
		log.Info("rate limiting backed by redis")
	}

	identities := svcauth.NewPostgresIdentityStore(pool)

	twoFactor, err := twofactor.New(tfCfg, twofactor.NewPostgresStore(pool), identities,
		twofactor.WithAuditLogger(auditLog),
		twofactor.WithRateLimitStore(rlStore),
	)
	if err != nil {
		return err
	}

	issuer, err := svcauth.NewJWTIssuer([]byte(authCfg.JWTSigningKey), authCfg.TokenIssuer, authCfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	login, err := svcauth.New(authCfg, identities, issuer, twoFactor,
		svcauth.WithAuditLogger(auditLog),
		svcauth.WithRateLimitStore(rlStore),
	)
	if err != nil {
		return err
	}

	mux := chi.NewRouter()
	mux.Get("/health", httpserver.HealthCheckHandler(ctx, log))
	mux.Get("/ready", httpserver.HealthCheckHandler(ctx, log, healthchecks...))
	mux.Mount("/auth", modauth.NewRouter(login, twoFactor, issuer))

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("http server listening", slog.String("addr", httpCfg.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("http server stopped")
		}),
	)
	return srv.Run(ctx, mux)
}
