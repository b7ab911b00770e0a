package credentials

import "errors"

var (
	// ErrCredentialNotFound is returned when no credential matches the id.
	ErrCredentialNotFound = errors.New("credentials: credential not found")

	// ErrAuthorizationFailed is returned when the EMR rejects the tokens.
	ErrAuthorizationFailed = errors.New("credentials: authorization against EMR failed")

	// ErrMissingCredentialID is returned when a request carries no
	// X-Credential-ID header.
	ErrMissingCredentialID = errors.New("credentials: missing credential id")
)
