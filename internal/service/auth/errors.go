// Package auth provides JWT token issuance/validation and password hashing.
package auth

import "errors"

// Authentication errors returned by the JWT service and password helpers.
var (
	// ErrInvalidToken indicates the token is malformed or its signature
	// does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrInvalidCredentials indicates an email/password pair that does not
	// match a stored user. Deliberately indistinct about which half failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
