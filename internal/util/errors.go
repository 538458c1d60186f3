package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrAssessmentCompleted    = errors.New("assessment already completed")
	ErrAssessmentNotCompleted = errors.New("assessment not completed yet")
	ErrSubmissionInProgress   = errors.New("assessment submission already in progress")
	ErrGenerationFailed       = errors.New("content generation failed")
	ErrInvalidArgument        = errors.New("invalid argument")
)
