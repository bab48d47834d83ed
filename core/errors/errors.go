package errors

import "fmt"

type ErrorCode string

const (
	// Generic codes
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"

	// Auth codes
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"

	// Event domain codes
	ErrInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrDuplicateVote          ErrorCode = "DUPLICATE_VOTE"
	ErrDuplicateParticipant   ErrorCode = "DUPLICATE_PARTICIPANT"
	ErrCapacityExceeded       ErrorCode = "CAPACITY_EXCEEDED"
	ErrConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrAiAnalysisTimedOut     ErrorCode = "AI_ANALYSIS_TIMED_OUT"
	ErrVotingClosed           ErrorCode = "VOTING_CLOSED"
)

// AppError is the error type carried between service and controller layers.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
