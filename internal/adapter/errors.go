package adapter

import "errors"

// Sentinel errors mapped from transport failures. The orchestrator
// classifies them with [Retryable] before deciding between backoff and an
// immediate user-visible failure.
var (
	// ErrNotAuthenticated is returned when the token provider yields no
	// token, or the server rejects the one presented (HTTP 401).
	// Non-retryable: retrying cannot produce a token.
	ErrNotAuthenticated = errors.New("client not authenticated")

	// ErrBadRequest is returned for malformed payloads (HTTP 400).
	// Non-retryable: the same payload would fail again.
	ErrBadRequest = errors.New("malformed sync request")

	// ErrVersionConflict is returned should the server ever refuse an
	// overwrite outright (HTTP 409). The sync protocol reports conflicts
	// in the response body instead, so this marks a server that stopped
	// speaking the protocol. Non-retryable: resending the same write
	// would conflict again.
	ErrVersionConflict = errors.New("version conflict")

	// ErrServerUnavailable is returned for 5xx-class responses and
	// transport-level failures (timeouts, connection resets). Retryable.
	ErrServerUnavailable = errors.New("sync server unavailable")
)

// Retryable reports whether err may succeed on a later attempt. Network
// and server-side failures are retryable; authentication and payload
// errors are not.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrBadRequest), errors.Is(err, ErrVersionConflict):
		return false
	default:
		return true
	}
}
