package audit

import "errors"

var (
	ErrEventValidation = errors.New("audit: event validation failed")
	ErrStorageFailed   = errors.New("audit: failed to store event")
)
