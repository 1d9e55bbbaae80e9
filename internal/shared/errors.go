package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenRevoked indicates a token whose ID is on the denylist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrSystemActorImmutable guards mutations of the reserved system account.
	ErrSystemActorImmutable = errors.New("system actor cannot be modified")
)
