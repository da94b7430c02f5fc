package model

import (
	"errors"
	"fmt"
)

// Error codes, one per failure class of the backend boundary.
const (
	ErrCodeAuth        = "AUTH_ERROR"        // no or expired session
	ErrCodePersistence = "PERSISTENCE_ERROR" // row operation rejected
	ErrCodeStorage     = "STORAGE_ERROR"     // object upload/remove failed
	ErrCodeNotFound    = "POST_NOT_FOUND"
	ErrCodeForbidden   = "NOT_POST_OWNER"
)

// Sentinel errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("only the author can delete a post")
)

// PostError wraps a backend failure with its class. The class decides how
// the HTTP layer surfaces it; the wrapped error keeps the cause.
type PostError struct {
	Code    string
	Message string
	Err     error
}

func (e *PostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PostError) Unwrap() error {
	return e.Err
}

func NewAuthError(err error) *PostError {
	return &PostError{
		Code:    ErrCodeAuth,
		Message: "no authenticated user",
		Err:     err,
	}
}

func NewPersistenceError(err error) *PostError {
	return &PostError{
		Code:    ErrCodePersistence,
		Message: "post could not be saved",
		Err:     err,
	}
}

func NewStorageError(err error) *PostError {
	return &PostError{
		Code:    ErrCodeStorage,
		Message: "attachment upload failed",
		Err:     err,
	}
}
