package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/servercraft/authkit/pkg/audit"
	"github.com/servercraft/authkit/pkg/ratelimiter"
	"github.com/servercraft/authkit/svc/twofactor"
)

// noopLockoutReporter is used when the embedding application does not track
// failed attempts.
type noopLockoutReporter struct{}

func (noopLockoutReporter) ReportFailedSecondFactor(context.Context, string) {}

// Service drives the login flow: password check, optional trusted-device
// bypass, second-factor challenge and access-token issuance. Authentication
// state between the two steps is carried entirely in the signed temp token;
// the service keeps no per-login session.
type Service struct {
	cfg        Config
	identities IdentityStore
	issuer     AccessTokenIssuer
	twoFactor  *twofactor.Service
	lockout    LockoutReporter
	auditLog   audit.Logger
	loginLimit *ratelimiter.Bucket
	consumed   *nonceSet
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock injects a time source for temp-token issuance and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLockoutReporter forwards failed second-factor attempts to the
// embedding application's lockout policy.
func WithLockoutReporter(reporter LockoutReporter) Option {
	return func(s *Service) {
		s.lockout = reporter
	}
}

// WithAuditLogger sets the audit collaborator.
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) {
		s.auditLog = logger
	}
}

// WithRateLimitStore swaps the login limiter's backing store.
func WithRateLimitStore(store ratelimiter.Store) Option {
	return func(s *Service) {
		s.loginLimit = newLoginLimit(s.cfg, store)
	}
}

func newLoginLimit(cfg Config, store ratelimiter.Store) *ratelimiter.Bucket {
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       cfg.LoginLimit,
		RefillRate:     cfg.LoginLimit,
		RefillInterval: cfg.LoginWindow,
	})
	if err != nil {
		panic(fmt.Sprintf("auth: invalid login rate limit config: %v", err))
	}
	return b
}

// New creates a login service.
func New(cfg Config, identities IdentityStore, issuer AccessTokenIssuer, twoFactor *twofactor.Service, opts ...Option) (*Service, error) {
	if identities == nil {
		return nil, errors.New("auth: identity store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: access token issuer is required")
	}
	if twoFactor == nil {
		return nil, errors.New("auth: two-factor service is required")
	}
	if cfg.TempTokenSecret == "" {
		return nil, errors.New("auth: temp token secret is required")
	}

	s := &Service{
		cfg:        cfg,
		identities: identities,
		issuer:     issuer,
		twoFactor:  twoFactor,
		lockout:    noopLockoutReporter{},
		loginLimit: newLoginLimit(cfg, ratelimiter.NewMemoryStore()),
		consumed:   newNonceSet(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auditLog == nil {
		s.auditLog = audit.NewLogger(audit.NewMemoryStorage())
	}
	return s, nil
}

// Login performs the password step. Identities without two-factor enabled,
// and identities presenting a valid trusted-device token, get an access
// token straight away. Everyone else gets a short-lived temp token and owes
// a call to VerifySecondFactor. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	result, err := s.loginLimit.Allow(ctx, "login:"+email)
	if err != nil {
		return nil, err
	}
	if !result.Allowed() {
		return nil, ErrRateLimited
	}

	identity, err := s.identities.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		_ = s.auditLog.LogFailure(ctx, "login", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.identities.VerifyPassword(ctx, identity.ID, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		_ = s.auditLog.LogFailure(ctx, "login", ErrInvalidCredentials, audit.WithIdentity(identity.ID))
		return nil, ErrInvalidCredentials
	}

	status, err := s.twoFactor.Status(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if !status.Enabled {
		return s.authenticated(ctx, identity.ID, "password")
	}

	if req.DeviceToken != "" {
		trusted, err := s.twoFactor.Devices().Validate(ctx, identity.ID, req.DeviceToken)
		if err != nil {
			return nil, err
		}
		if trusted {
			return s.authenticated(ctx, identity.ID, "trusted_device")
		}
	}

	tempToken, err := s.issueTempToken(identity.ID)
	if err != nil {
		return nil, err
	}

	_ = s.auditLog.Log(ctx, "login.challenge", audit.WithIdentity(identity.ID))
	return &LoginResult{Requires2FA: true, TempToken: tempToken}, nil
}

// VerifySecondFactor completes a challenged login. The temp token is
// validated first; a failed code leaves it usable for another try until its
// TTL, a successful one consumes it for good. RememberDevice additionally
// issues a trusted-device token.
func (s *Service) VerifySecondFactor(ctx context.Context, req SecondFactorRequest) (*LoginResult, error) {
	claims, err := s.parseTempToken(req.TempToken)
	if err != nil {
		_ = s.auditLog.LogFailure(ctx, "login.2fa", err)
		return nil, err
	}

	if _, err := s.twoFactor.VerifyCode(ctx, claims.IdentityID, req.Code); err != nil {
		if errors.Is(err, twofactor.ErrInvalidSecondFactor) {
			s.lockout.ReportFailedSecondFactor(ctx, claims.IdentityID)
			_ = s.auditLog.LogFailure(ctx, "login.2fa", ErrInvalidSecondFactor, audit.WithIdentity(claims.IdentityID))
			return nil, ErrInvalidSecondFactor
		}
		if errors.Is(err, twofactor.ErrRateLimited) {
			return nil, ErrRateLimited
		}
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccessToken(ctx, claims.IdentityID)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{AccessToken: accessToken}
	if req.RememberDevice {
		deviceToken, err := s.twoFactor.Devices().Issue(ctx, claims.IdentityID)
		if err != nil {
			return nil, err
		}
		result.DeviceToken = deviceToken
	}

	// Consume the challenge only once everything the caller was promised has
	// been minted; an issuance failure leaves the temp token usable for a
	// retry within its TTL.
	s.consumed.add(claims.Nonce, time.Unix(claims.ExpiresAt, 0), s.now())

	_ = s.auditLog.Log(ctx, "login.success",
		audit.WithIdentity(claims.IdentityID),
		audit.WithMetadata("method", "second_factor"))
	return result, nil
}

func (s *Service) authenticated(ctx context.Context, identityID, method string) (*LoginResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(ctx, identityID)
	if err != nil {
		return nil, err
	}
	_ = s.auditLog.Log(ctx, "login.success",
		audit.WithIdentity(identityID),
		audit.WithMetadata("method", method))
	return &LoginResult{AccessToken: accessToken}, nil
}
