package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Giveaway lifecycle errors
	ErrCodeInvalidState         ErrorCode = "INVALID_STATE"
	ErrCodeAlreadyClosed        ErrorCode = "ALREADY_CLOSED"
	ErrCodeAlreadyParticipating ErrorCode = "ALREADY_PARTICIPATING"
	ErrCodeNotParticipating     ErrorCode = "NOT_PARTICIPATING"
	ErrCodeNoParticipants       ErrorCode = "NO_PARTICIPANTS"
	ErrCodeNoOtherParticipants  ErrorCode = "NO_OTHER_PARTICIPANTS"

	// Infrastructure errors
	ErrCodeDatabase     ErrorCode = "DATABASE_ERROR"
	ErrCodeNotification ErrorCode = "NOTIFICATION_ERROR"
)

// AppError is the typed error carried through services and handlers.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error means a missing resource or membership.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeNotParticipating
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeInvalidState ||
		e.Code == ErrCodeNoParticipants ||
		e.Code == ErrCodeNoOtherParticipants
}

func (e *AppError) IsConflict() bool {
	return e.Code == ErrCodeAlreadyParticipating || e.Code == ErrCodeAlreadyClosed
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeDatabase
}

// WithDetail attaches structured context to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the recurring cases.

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewGiveawayNotFoundError(giveawayID int64) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("giveaway not found: %d", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewInvalidStateError(giveawayID int64, state, operation string) *AppError {
	return New(ErrCodeInvalidState, fmt.Sprintf("operation %s not allowed in state %s", operation, state)).
		WithDetail("giveaway_id", giveawayID).
		WithDetail("state", state).
		WithDetail("operation", operation)
}

func NewAlreadyClosedError(giveawayID int64) *AppError {
	return New(ErrCodeAlreadyClosed, fmt.Sprintf("giveaway %d is already closed", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewAlreadyParticipatingError(giveawayID int64, userID string) *AppError {
	return New(ErrCodeAlreadyParticipating, "user is already participating").
		WithDetail("giveaway_id", giveawayID).
		WithDetail("user_id", userID)
}

func NewNotParticipatingError(giveawayID int64, userID string) *AppError {
	return New(ErrCodeNotParticipating, "user is not participating").
		WithDetail("giveaway_id", giveawayID).
		WithDetail("user_id", userID)
}

func NewNoParticipantsError(giveawayID int64) *AppError {
	return New(ErrCodeNoParticipants, fmt.Sprintf("giveaway %d has no participants", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewNoOtherParticipantsError(giveawayID int64) *AppError {
	return New(ErrCodeNoOtherParticipants, "previous winner is the only participant").
		WithDetail("giveaway_id", giveawayID)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("unauthorized: %s", reason))
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("forbidden: %s", reason))
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, fmt.Sprintf("database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewNotificationError(sink string, err error) *AppError {
	return Wrap(err, ErrCodeNotification, fmt.Sprintf("notification delivery failed: %s", sink)).
		WithDetail("sink", sink)
}

// AsAppError unwraps err into an AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
