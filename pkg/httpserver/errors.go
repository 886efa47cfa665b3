package httpserver

import "errors"

var (
	// ErrStart reports that the listener could not come up or the server
	// terminated abnormally.
	ErrStart = errors.New("httpserver: start failed")
	// ErrShutdown reports that the graceful stop did not complete cleanly.
	ErrShutdown = errors.New("httpserver: shutdown failed")
)
