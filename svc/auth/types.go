package auth

import "context"

// Identity is the minimal view of an account the login flow needs.
type Identity struct {
	ID    string
	Email string
}

// IdentityStore is the external account system. Lookup failures and bad
// passwords both collapse into ErrInvalidCredentials at the service layer;
// implementations just report what they know.
type IdentityStore interface {
	// LookupByEmail returns the identity for the email, or (nil, nil) when
	// no such account exists.
	LookupByEmail(ctx context.Context, email string) (*Identity, error)

	// VerifyPassword checks the password for the identity.
	VerifyPassword(ctx context.Context, identityID, password string) (bool, error)
}

// AccessTokenIssuer mints the session credential handed out after full
// authentication. The default implementation signs HS256 JWTs.
type AccessTokenIssuer interface {
	IssueAccessToken(ctx context.Context, identityID string) (string, error)
}

// LockoutReporter receives failed second-factor attempts. Account lockout
// policy lives outside this subsystem; reporting is fire-and-forget.
type LockoutReporter interface {
	ReportFailedSecondFactor(ctx context.Context, identityID string)
}

// LoginRequest carries the first authentication step. DeviceToken is the
// optional trusted-device bypass token presented by a remembered browser.
type LoginRequest struct {
	Email       string
	Password    string
	DeviceToken string
}

// SecondFactorRequest completes a login that was answered with Requires2FA.
type SecondFactorRequest struct {
	TempToken string
	Code      string
	// RememberDevice requests a trusted-device token so this browser can
	// skip the challenge next time.
	RememberDevice bool
}

// LoginResult is the outcome of Login or VerifySecondFactor. Exactly one of
// AccessToken or TempToken is set: a temp token means the password was
// right but a second factor is still owed.
type LoginResult struct {
	Requires2FA bool   `json:"requires_2fa"`
	AccessToken string `json:"access_token,omitempty"`
	TempToken   string `json:"temp_token,omitempty"`
	// DeviceToken is set only when VerifySecondFactor succeeded with
	// RememberDevice; it is shown exactly once.
	DeviceToken string `json:"device_token,omitempty"`
}
