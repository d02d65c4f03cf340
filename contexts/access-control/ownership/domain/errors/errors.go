package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized  = errors.New("ownership already initialized")
	ErrAlreadyRenounced    = errors.New("ownership permanently renounced")
	ErrInvalidPrincipal    = errors.New("invalid principal id")
	ErrUnauthorizedAccount = errors.New("caller is not authorized for ownership action")
)

// UnauthorizedAccountError identifies which caller failed the owner or
// pending-owner check. errors.Is matches ErrUnauthorizedAccount.
type UnauthorizedAccountError struct {
	Account string
}

func (e UnauthorizedAccountError) Error() string {
	return fmt.Sprintf("account %q is not authorized for ownership action", e.Account)
}

func (e UnauthorizedAccountError) Unwrap() error {
	return ErrUnauthorizedAccount
}
