package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	StatusOK                  = http.StatusOK
	StatusBadRequest          = http.StatusBadRequest
	StatusNotFound            = http.StatusNotFound
	StatusMethodNotAllowed    = http.StatusMethodNotAllowed
	StatusRequestTimeout      = http.StatusRequestTimeout
	StatusPayloadTooLarge     = http.StatusRequestEntityTooLarge
	StatusTooManyRequests     = http.StatusTooManyRequests
	StatusInternalServerError = http.StatusInternalServerError
)

const (
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
	ErrorTypeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrorTypeRequestTimeout      = "REQUEST_TIMEOUT"
	ErrorTypeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrorTypePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrorTypeStorageError        = "STORAGE_ERROR"
)

// AppError carries a client-safe Message; Err keeps the underlying cause for
// logs only.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

func NewMethodNotAllowedError(message string, err error) *AppError {
	return NewAppError(ErrorTypeMethodNotAllowed, message, err)
}

func NewPayloadTooLargeError(message string, err error) *AppError {
	return NewAppError(ErrorTypePayloadTooLarge, message, err)
}

// NewStorageError marks a failure of the write path. Message is returned to
// clients as-is, so keep OS details in err.
func NewStorageError(message string, err error) *AppError {
	return NewAppError(ErrorTypeStorageError, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType string) bool {
	return err != nil && GetErrorType(err) == errType
}
