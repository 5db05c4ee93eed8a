package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Like-state rejections. Both wrap ErrConflict so the HTTP layer maps
	// them to 409 without knowing about post engagement specifically, while
	// callers that care can still match the precise cause with errors.Is.
	ErrAlreadyLiked    = fmt.Errorf("already liked: %w", ErrConflict)
	ErrNothingToUnlike = fmt.Errorf("nothing to unlike: %w", ErrConflict)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing, invalid, expired, or stale
// credentials. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// DuplicateEmail returns the conflict raised when a signup or profile update
// targets an email address that another account already owns.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("email %s is already registered", email),
		Field:   "email",
	}
}

// AlreadyLiked rejects a like by a user who already likes the post.
func AlreadyLiked(postID string) *AppError {
	return &AppError{
		Err:     ErrAlreadyLiked,
		Message: fmt.Sprintf("post %s is already liked by this user", postID),
	}
}

// NothingToUnlike rejects an unlike by a user who does not like the post.
func NothingToUnlike(postID string) *AppError {
	return &AppError{
		Err:     ErrNothingToUnlike,
		Message: fmt.Sprintf("post %s has no like from this user to remove", postID),
	}
}
