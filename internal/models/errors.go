package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound         = errors.New("resource not found") // General not found
	ErrStoryNotFound    = errors.New("story not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrProgressNotFound = errors.New("story progress not found")
	ErrUserNotFound     = errors.New("user not found")

	// Access Errors
	ErrUnauthorized    = errors.New("unauthorized")                  // Authentication required or failed
	ErrForbidden       = errors.New("forbidden")                     // Authenticated, but lacks permission
	ErrPremiumRequired = errors.New("premium subscription required") // Premium gate

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
