package waitlist

import (
	"strings"

	apperrors "github.com/akeren/waitlist-intake/pkg/errors"
)

const (
	msgMethodNotAllowed = "Method not allowed. Use POST."
	msgNoData           = "No data received"
	msgPayloadTooLarge  = "Request payload too large"
	msgInvalidJSON      = "Invalid JSON: "
	msgStorageFailure   = "Error saving data: "
	msgSubmitted        = "Thank you! You have been added to our waitlist."
	msgErrorDetails     = "Check server error logs for more information"
)

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

type InvalidEmailError struct {
	Value string
}

func (e *InvalidEmailError) Error() string {
	return "Invalid email format: " + e.Value
}

func newMissingFieldsError(fields []string) *apperrors.AppError {
	cause := &MissingFieldsError{Fields: fields}
	return apperrors.NewInvalidRequestError(cause.Error(), cause)
}

func newInvalidEmailError(value string) *apperrors.AppError {
	cause := &InvalidEmailError{Value: value}
	return apperrors.NewInvalidRequestError(cause.Error(), cause)
}
