package domain

import (
	"errors"
	"fmt"
)

// Input and directory errors.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidRole          = errors.New("role does not exist")
	ErrDuplicateUser        = errors.New("user already exists")
	ErrUsernameTaken        = fmt.Errorf("%w: username is already in use", ErrDuplicateUser)
	ErrEmailTaken           = fmt.Errorf("%w: email is already in use", ErrDuplicateUser)
	ErrUserNotFound         = errors.New("user not found")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)

// Credential errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password does not match")
	ErrMalformedDigest    = errors.New("malformed password digest")
)

// Token errors. ErrTokenMalformed and ErrInvalidSignature come from the token
// service; the access middleware reports both as ErrInvalidToken.
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrNoToken          = errors.New("no token provided")
	ErrForbidden        = errors.New("access forbidden")
)
