package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier. Codes are the stable,
// machine-readable half of the response contract: messages may be reworded,
// codes must not change meaning across versions.
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeSessionMissing      ErrorCode = "AUTH_SESSION_MISSING"
	ErrCodeSessionEmpty        ErrorCode = "AUTH_SESSION_EMPTY"
	ErrCodeSessionNoUser       ErrorCode = "AUTH_SESSION_NO_USER"
	ErrCodeSessionUserNotFound ErrorCode = "AUTH_SESSION_USER_NOT_FOUND"
	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeEmailInUse          ErrorCode = "EMAIL_IN_USE"

	// Validation
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidID  ErrorCode = "INVALID_ID"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Telegram linking
	ErrCodeBotUsernameMissing    ErrorCode = "TELEGRAM_BOT_USERNAME_MISSING"
	ErrCodeTelegramConfigMissing ErrorCode = "TELEGRAM_CONFIG_MISSING"
	ErrCodeConfirmNotFound       ErrorCode = "TELEGRAM_CONFIRM_NOT_FOUND"

	// AI insights
	ErrCodeAINotConfigured ErrorCode = "AI_NOT_CONFIGURED"
	ErrCodeAILimitReached  ErrorCode = "AI_LIMIT_REACHED"

	// Rate limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthenticated(code ErrorCode) *AppError {
	return New(code, "Unauthorized")
}

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid credentials")
}

func EmailInUse() *AppError {
	return New(ErrCodeEmailInUse, "Email already registered")
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func MissingFields(fields []string) *AppError {
	return New(ErrCodeValidation, "Missing required fields").
		WithDetails(map[string]any{"fields": fields})
}

func InvalidID(field string) *AppError {
	return New(ErrCodeInvalidID, fmt.Sprintf("Invalid %s", field)).
		WithDetails(map[string]any{"field": field})
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func BotUsernameMissing() *AppError {
	return New(ErrCodeBotUsernameMissing, "Bot username is not configured")
}

func TelegramConfigMissing() *AppError {
	return New(ErrCodeTelegramConfigMissing, "Telegram bot token or webhook secret is not configured")
}

func AINotConfigured() *AppError {
	return New(ErrCodeAINotConfigured, "AI is not configured")
}

func AILimitReached(limit int) *AppError {
	return New(ErrCodeAILimitReached, fmt.Sprintf("Daily AI limit reached (%d requests)", limit))
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
