package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTestNotFound is returned when a test id does not resolve.
	ErrTestNotFound = errors.New("test not found")
	// ErrQuestionNotFound indicates a question id is unknown within its test.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSubmissionNotFound means the user has not submitted the test.
	ErrSubmissionNotFound = errors.New("no submission found")
	// ErrUserNotFound is returned by credential lookups.
	ErrUserNotFound = errors.New("user not found")
	// ErrAttemptNotFound means the user never started the timed test.
	ErrAttemptNotFound = errors.New("attempt not started")

	// ErrAlreadySubmitted is returned when a (user, test) pair already has a submission.
	ErrAlreadySubmitted = errors.New("already submitted")
	// ErrEmailTaken is returned on signup with an existing email.
	ErrEmailTaken = errors.New("user already exists")
	// ErrLoginIDTaken is returned when a generated login id collides.
	ErrLoginIDTaken = errors.New("login id already exists")
	// ErrAlreadyAssigned is returned when a sub test is already under the main test.
	ErrAlreadyAssigned = errors.New("sub test is already assigned to this main test")
	// ErrDeadlinePassed is returned when deadline enforcement rejects a late submission.
	ErrDeadlinePassed = errors.New("test deadline has passed")

	// ErrInvalidCredentials covers a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated covers missing, invalid or malformed tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a role may not perform an action.
	ErrForbidden = errors.New("access denied")
	// ErrNotSubmitted gates explanations until the test is submitted.
	ErrNotSubmitted = errors.New("you must submit the test first to view explanations")
)

// ValidationError describes malformed or incomplete input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
