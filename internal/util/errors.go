package util

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindInvalidState     ErrorKind = "INVALID_STATE"
	KindValidationFailed ErrorKind = "VALIDATION_FAILED"
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
	KindConflict         ErrorKind = "CONFLICT"
	KindInternal         ErrorKind = "INTERNAL"
)

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindValidationFailed:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError 带错误类别的业务错误
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Internal 包装持久化、缓存等底层错误
func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

func ValidationFailed(fields []FieldError) *AppError {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &AppError{Kind: KindValidationFailed, Message: msg, Fields: fields}
}

// KindOf 非 AppError 一律视为内部错误
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrUserNotFound         = NewError(KindNotFound, "User not found")
	ErrEmailRegistered      = NewError(KindConflict, "User already exists with this email")
	ErrInvalidCredentials   = NewError(KindUnauthorized, "Invalid credentials")
	ErrAccountDeactivated   = NewError(KindUnauthorized, "Account is deactivated")
	ErrTokenRevoked         = NewError(KindUnauthorized, "Token has been invalidated")
	ErrPasswordRequired     = ValidationFailed([]FieldError{{Field: "password", Message: "Password is required to delete account"}})
	ErrInvalidPassword      = NewError(KindUnauthorized, "Invalid password")
	ErrQuizNotFound         = NewError(KindNotFound, "Quiz not found")
	ErrQuizUnavailable      = NewError(KindNotFound, "Quiz not found or inactive")
	ErrQuizPrivate          = NewError(KindForbidden, "Access denied to private quiz")
	ErrNotQuizOwner         = NewError(KindForbidden, "Not authorized to modify this quiz")
	ErrQuizAnalyticsDenied  = NewError(KindForbidden, "Not authorized to view quiz analytics")
	ErrAttemptNotFound      = NewError(KindNotFound, "Quiz attempt not found")
	ErrNotAttemptOwner      = NewError(KindForbidden, "Not authorized to submit this attempt")
	ErrAttemptCompleted     = NewError(KindInvalidState, "Quiz attempt already completed")
	ErrAttemptFieldsMissing = NewError(KindInvalidState, "Attempt ID and answers are required")
	ErrInvalidAvatar        = NewError(KindValidationFailed, "Please upload an image file")
	ErrPermissionDenied     = NewError(KindForbidden, "Permission denied")
)
