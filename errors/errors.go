package errors

import "fmt"

var (
	ErrInvalidReceiver    = fmt.Errorf("invalid receiver id")
	ErrEmptyContent       = fmt.Errorf("content required")
	ErrContentTooLong     = fmt.Errorf("content too long")
	ErrInvalidPeer        = fmt.Errorf("invalid peer id")
	ErrInvalidCursor      = fmt.Errorf("invalid cursor")
	ErrInvalidLimit       = fmt.Errorf("invalid limit")
	ErrUnauthenticated    = fmt.Errorf("missing or invalid identity")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnavailable        = fmt.Errorf("storage unavailable")
)
