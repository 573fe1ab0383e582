package auth

import "errors"

// Errors returned by ValidateToken and the scope checks of the thing API.
// The API layer maps ErrInsufficientScope to 403 and the rest to 401.
var (
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = errors.New("bearer token is missing")

	// ErrInvalidToken covers malformed tokens, bad signatures and signing
	// methods other than HS256.
	ErrInvalidToken = errors.New("bearer token is invalid")

	// ErrExpiredToken means the exp claim has passed.
	ErrExpiredToken = errors.New("bearer token has expired")

	// ErrTokenNotYetValid means the nbf claim is in the future.
	ErrTokenNotYetValid = errors.New("bearer token is not valid yet")

	// ErrInsufficientScope means a valid token lacks read:thing or write:thing
	// for the route it was presented to.
	ErrInsufficientScope = errors.New("token scope does not cover this thing operation")
)
