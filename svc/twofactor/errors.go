package twofactor

import "errors"

// Security error taxonomy. These are surfaced to callers verbatim and must
// stay free of internal detail: a failed backup code never reveals whether
// it was consumed earlier or never issued at all.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSecondFactor = errors.New("invalid second factor")
	ErrAlreadyEnabled      = errors.New("two-factor authentication already enabled")
	ErrNotPending          = errors.New("no pending two-factor enrollment")
	ErrNotEnrolled         = errors.New("two-factor authentication not enabled")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

// Storage-level errors. These indicate infrastructure or concurrency
// conditions and are distinct from the security taxonomy above.
var (
	ErrVersionConflict          = errors.New("record version conflict")
	ErrCodeNotFound             = errors.New("backup code hash not found")
	ErrNoPendingEnrollment      = errors.New("no pending enrollment stored")
	ErrStepAlreadyUsed          = errors.New("time step already consumed")
	ErrFailedToIssueDeviceToken = errors.New("failed to issue device token")
)
