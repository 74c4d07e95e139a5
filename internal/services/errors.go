// Package services defines the business logic for the credential vault, the
// generation pipeline, favorites, questions, users, and the activity log.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// The *NotFound values cover both "does not exist" and "owned by someone
// else": repositories scope every query to the caller, so the service layer
// cannot tell the difference and callers must not be able to either.
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Validation errors (rejected before any write).
var (
	// ErrEmptyJobDescription is returned when a generation is submitted
	// without job-description text.
	ErrEmptyJobDescription = errors.New("job description is empty")

	// ErrJobDescriptionTooLong is returned when the job description exceeds
	// the configured word limit.
	ErrJobDescriptionTooLong = errors.New("job description too long")

	// ErrEmptyLabel is returned when a credential is registered without a
	// label.
	ErrEmptyLabel = errors.New("credential label is empty")

	// ErrEmptyKey is returned when a credential is registered without key
	// material.
	ErrEmptyKey = errors.New("credential key is empty")

	// ErrEmptyDisplayName is returned when a profile update carries a blank
	// display name.
	ErrEmptyDisplayName = errors.New("display name is empty")
)

// Not-found-or-forbidden errors (absent and foreign entities are identical).
var (
	// ErrCredentialNotFound indicates the credential does not exist or is not
	// accessible to the current user.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrRequestNotFound indicates the generation request does not exist or
	// is not accessible to the current user.
	ErrRequestNotFound = errors.New("generation request not found")

	// ErrQuestionNotFound indicates the question does not exist or is not
	// accessible to the current user.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrFavoriteNotFound indicates the favorite does not exist or is not
	// accessible to the current user.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrUserNotFound indicates no local record exists for the identity.
	ErrUserNotFound = errors.New("user not found")
)

// Conflict and external-failure errors.
var (
	// ErrCredentialInUse is returned when removing a credential that
	// generation requests still reference.
	ErrCredentialInUse = errors.New("credential is in use by generation requests")

	// ErrAnswerFailed is returned when the engine could not produce an
	// answer for a question. The wrapped detail is sanitized.
	ErrAnswerFailed = errors.New("answer generation failed")
)
