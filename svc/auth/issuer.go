package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/servercraft/authkit/pkg/jwt"
)

// JWTIssuer is the default AccessTokenIssuer: HS256 JWTs with standard
// claims, a unique jti and the configured issuer and lifetime.
type JWTIssuer struct {
	svc    *jwt.Service
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates an access-token issuer signing with the given key.
func NewJWTIssuer(signingKey []byte, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	svc, err := jwt.New(signingKey)
	if err != nil {
		return nil, err
	}
	return &JWTIssuer{
		svc:    svc,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (j *JWTIssuer) IssueAccessToken(_ context.Context, identityID string) (string, error) {
	now := j.now()
	return j.svc.Generate(jwt.StandardClaims{
		ID:        uuid.NewString(),
		Subject:   identityID,
		Issuer:    j.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(j.ttl).Unix(),
	})
}

// ParseAccessToken validates a previously issued token and returns its
// subject, the identity ID.
func (j *JWTIssuer) ParseAccessToken(tokenString string) (string, error) {
	var claims jwt.StandardClaims
	if err := j.svc.Parse(tokenString, &claims); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
