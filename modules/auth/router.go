package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/servercraft/authkit/pkg/clientip"
	svcauth "github.com/servercraft/authkit/svc/auth"
	"github.com/servercraft/authkit/svc/twofactor"
)

var errUnauthorized = errors.New("missing or invalid access token")

// AccessTokenParser resolves a bearer token to an identity ID. The default
// svc/auth JWTIssuer satisfies it.
type AccessTokenParser interface {
	ParseAccessToken(tokenString string) (string, error)
}

type module struct {
	login     *svcauth.Service
	twoFactor *twofactor.Service
	tokens    AccessTokenParser
}

// NewRouter mounts the authentication HTTP surface:
//
//	POST /login                  password step, may return a 2FA challenge
//	POST /login/2fa              second-factor step completing a challenge
//	POST /2fa/setup              begin enrollment (authenticated)
//	POST /2fa/enable             confirm enrollment (authenticated)
//	POST /2fa/disable            turn 2FA off (authenticated)
//	GET  /2fa/status             current configuration (authenticated)
//	POST /2fa/backup-codes       regenerate backup codes (authenticated)
//	POST /2fa/devices/revoke     revoke all trusted devices (authenticated)
func NewRouter(login *svcauth.Service, twoFactor *twofactor.Service, tokens AccessTokenParser) http.Handler {
	m := &module{login: login, twoFactor: twoFactor, tokens: tokens}

	r := chi.NewRouter()
	r.Use(clientip.Middleware)

	r.Post("/login", m.handleLogin)
	r.Post("/login/2fa", m.handleLoginSecondFactor)

	r.Route("/2fa", func(r chi.Router) {
		r.Use(m.requireIdentity)
		r.Post("/setup", m.handleSetup)
		r.Post("/enable", m.handleEnable)
		r.Post("/disable", m.handleDisable)
		r.Get("/status", m.handleStatus)
		r.Post("/backup-codes", m.handleRegenerateBackupCodes)
		r.Post("/devices/revoke", m.handleRevokeDevices)
	})

	return r
}

type ctxKey struct{}

// requireIdentity authenticates management routes via the Authorization
// header and stores the identity ID in the request context. Temp tokens are
// not access tokens and never pass this gate.
func (m *module) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, errUnauthorized)
			return
		}

		identityID, err := m.tokens.ParseAccessToken(token)
		if err != nil || identityID == "" {
			respondError(w, errUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, identityID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
