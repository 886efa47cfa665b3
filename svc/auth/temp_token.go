package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servercraft/authkit/pkg/token"
)

// challengeClaims is the payload of the HMAC-signed temp token bridging
// password verification and the second-factor step. It authorizes exactly
// one operation, VerifySecondFactor, and nothing else.
type challengeClaims struct {
	Nonce      string `json:"nonce"`
	IdentityID string `json:"identity_id"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}

func (s *Service) issueTempToken(identityID string) (string, error) {
	now := s.now()
	return token.Generate(challengeClaims{
		Nonce:      uuid.NewString(),
		IdentityID: identityID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(s.cfg.TempTokenTTL).Unix(),
	}, s.cfg.TempTokenSecret)
}

// parseTempToken validates signature, expiry and single-use state. Every
// failure mode maps to the same ErrExpiredTempToken so callers cannot
// distinguish forged, stale and replayed tokens.
func (s *Service) parseTempToken(tok string) (challengeClaims, error) {
	claims, err := token.Parse[challengeClaims](tok, s.cfg.TempTokenSecret)
	if err != nil {
		return challengeClaims{}, ErrExpiredTempToken
	}
	if s.now().Unix() >= claims.ExpiresAt {
		return challengeClaims{}, ErrExpiredTempToken
	}
	if s.consumed.contains(claims.Nonce) {
		return challengeClaims{}, ErrExpiredTempToken
	}
	return claims, nil
}

// nonceSet tracks challenge nonces that already completed authentication,
// so a successful temp token cannot be replayed within its TTL. A failed
// attempt does not consume the nonce; the caller may retry until expiry.
type nonceSet struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func newNonceSet() *nonceSet {
	return &nonceSet{expires: make(map[string]time.Time)}
}

func (ns *nonceSet) add(nonce string, expiresAt time.Time, now time.Time) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	// Evict dead entries on write; expired nonces are unusable anyway
	// because the token expiry check runs first.
	for n, exp := range ns.expires {
		if !now.Before(exp) {
			delete(ns.expires, n)
		}
	}
	ns.expires[nonce] = expiresAt
}

func (ns *nonceSet) contains(nonce string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	_, ok := ns.expires[nonce]
	return ok
}
