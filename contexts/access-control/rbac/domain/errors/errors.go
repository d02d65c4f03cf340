package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRole            = errors.New("invalid role id")
	ErrInvalidAccount         = errors.New("invalid account id")
	ErrUnauthorizedAccount    = errors.New("account is missing required role")
	ErrBadConfirmation        = errors.New("renounce confirmation does not match caller")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)

// UnauthorizedAccountError identifies which account lacked which role.
// errors.Is matches ErrUnauthorizedAccount.
type UnauthorizedAccountError struct {
	Account string
	Role    string
}

func (e UnauthorizedAccountError) Error() string {
	return fmt.Sprintf("account %q is missing role %s", e.Account, e.Role)
}

func (e UnauthorizedAccountError) Unwrap() error {
	return ErrUnauthorizedAccount
}
