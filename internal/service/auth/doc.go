// Package auth issues and validates the HMAC-signed JWTs that carry a
// caller's user name and scopes.
package auth
