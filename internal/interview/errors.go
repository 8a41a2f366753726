package interview

import "errors"

// ErrSessionExpired is returned when input arrives for a session that was
// expired or never existed. It is terminal for that session identifier; the
// candidate must start over.
var ErrSessionExpired = errors.New("session expired")
