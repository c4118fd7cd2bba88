package storefront

import "errors"

var (
	// ErrUnauthenticated: a protected action was attempted without a session.
	ErrUnauthenticated = errors.New("please login to continue")
	// ErrUnauthorized: the session's role does not allow the action.
	ErrUnauthorized = errors.New("you do not have permission to perform this action")
	// ErrEmptyCart: checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("your cart is empty")
	// ErrInvalidInput: a form was submitted with missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
)
