package errors

import (
	"context"
	"net"
	"net/http"

	"lessonsync/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Is matches copies produced by WithDetails against the predefined error.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == t.errorCode
}

// Predefined error types
var (
	// Profile-related errors
	ErrProfileNotFound = NewBaseError(
		http.StatusNotFound,
		"PROFILE_NOT_FOUND",
		"找不到該個人檔案",
		"",
	)

	ErrProfileAlreadyExists = NewBaseError(
		http.StatusConflict,
		"PROFILE_ALREADY_EXISTS",
		"此電子郵件已有個人檔案",
		"",
	)

	ErrProfileCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"PROFILE_CREATION_FAILED",
		"建立個人檔案失敗",
		"",
	)

	ErrShadowCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"SHADOW_CREATION_FAILED",
		"建立影子帳號失敗",
		"",
	)

	// Identity-related errors
	ErrAmbiguousIdentity = NewBaseError(
		http.StatusConflict,
		"AMBIGUOUS_IDENTITY",
		"此電子郵件對應到多個個人檔案，需要人工確認",
		"",
	)

	ErrMergeFailed = NewBaseError(
		http.StatusInternalServerError,
		"MERGE_FAILED",
		"合併影子帳號失敗",
		"",
	)

	ErrMergeConflict = NewBaseError(
		http.StatusConflict,
		"MERGE_CONFLICT",
		"帳號識別碼已被其他個人檔案使用",
		"",
	)

	// Lesson-related errors
	ErrLessonCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"LESSON_CREATION_FAILED",
		"建立課程失敗",
		"",
	)

	// Import-related errors
	ErrImportRunNotFound = NewBaseError(
		http.StatusNotFound,
		"IMPORT_RUN_NOT_FOUND",
		"找不到該匯入作業",
		"",
	)

	ErrImportRunNotActive = NewBaseError(
		http.StatusConflict,
		"IMPORT_RUN_NOT_ACTIVE",
		"該匯入作業目前未在執行",
		"",
	)

	ErrImportRunNotResumable = NewBaseError(
		http.StatusConflict,
		"IMPORT_RUN_NOT_RESUMABLE",
		"該匯入作業無法續傳",
		"",
	)

	ErrCalendarUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"CALENDAR_UNAVAILABLE",
		"行事曆服務暫時無法使用",
		"",
	)

	ErrLockUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"LOCK_UNAVAILABLE",
		"資源忙碌中，請稍後再試",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"尚未通過身分驗證",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"存取被拒絕",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "資料庫執行失敗"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// IsTransient reports whether err is worth retrying: timeouts, unavailable
// collaborators and generic storage execution failures. Invariant violations
// (duplicate email, ambiguous identity, merge conflicts) are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrProfileAlreadyExists),
		errors.Is(err, ErrAmbiguousIdentity),
		errors.Is(err, ErrMergeConflict),
		errors.Is(err, ErrValidationFailed),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrCalendarUnavailable),
		errors.Is(err, ErrLockUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	if _, ok := errors.AsType[*DatabaseExecuteError](err); ok {
		return true
	}

	netErr, ok := errors.AsType[net.Error](err)

	return ok && netErr.Timeout()
}
