package errors

import (
	"errors"
)

const genericMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeNotFound:            StatusNotFound,
	ErrorTypeInvalidRequest:      StatusBadRequest,
	ErrorTypeTooManyRequests:     StatusTooManyRequests,
	ErrorTypeRequestTimeout:      StatusRequestTimeout,
	ErrorTypeMethodNotAllowed:    StatusMethodNotAllowed,
	ErrorTypePayloadTooLarge:     StatusPayloadTooLarge,
	ErrorTypeDatabaseError:       StatusInternalServerError,
	ErrorTypeStorageError:        StatusInternalServerError,
	ErrorTypeInternalServerError: StatusInternalServerError,
}

// HTTPStatusCode maps unknown and nil errors to 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message, or a generic one so
// driver and OS errors never reach clients.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return genericMessage
}
