package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
)

// Meta accompanies every response so clients and operators can correlate
// a payload with a request.
type Meta struct {
	RequestID     string `json:"request_id"`
	Timestamp     string `json:"timestamp"`
	Authenticated *bool  `json:"authenticated,omitempty"`
}

// Envelope is the uniform response shape. Code values are stable
// machine-readable identifiers; Message is prose and may change.
type Envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
	Meta    Meta   `json:"meta"`
}

func buildMeta(r *http.Request, authenticated *bool) Meta {
	requestID := chimiddleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = "unknown"
	}
	return Meta{
		RequestID:     requestID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Authenticated: authenticated,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Authenticated marks a response as coming from an authenticated request.
func Authenticated() *bool {
	v := true
	return &v
}

func Success(w http.ResponseWriter, r *http.Request, status int, code, message string, data any, authenticated *bool) {
	WriteJSON(w, status, Envelope{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    buildMeta(r, authenticated),
	})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string, details any, authenticated *bool) {
	WriteJSON(w, status, Envelope{
		Success: false,
		Code:    code,
		Message: message,
		Details: details,
		Meta:    buildMeta(r, authenticated),
	})
}

// WriteError writes an AppError as an HTTP response with the status code
// its error code maps to.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred")
	}
	Fail(w, r, StatusFromCode(appErr.Code), string(appErr.Code), appErr.Message, appErr.Details, nil)
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidID:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeSessionMissing,
		apperrors.ErrCodeSessionEmpty,
		apperrors.ErrCodeSessionNoUser,
		apperrors.ErrCodeSessionUserNotFound,
		apperrors.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized

	// 404 Not Found
	case apperrors.ErrCodeNotFound,
		apperrors.ErrCodeConfirmNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeEmailInUse:
		return http.StatusConflict

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded,
		apperrors.ErrCodeAILimitReached:
		return http.StatusTooManyRequests

	// 502 Bad Gateway
	case apperrors.ErrCodeExternal:
		return http.StatusBadGateway

	// 500 Internal Server Error
	case apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase,
		apperrors.ErrCodeBotUsernameMissing,
		apperrors.ErrCodeTelegramConfigMissing,
		apperrors.ErrCodeAINotConfigured:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
