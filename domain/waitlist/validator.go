package waitlist

import (
	"strings"
	"time"

	"github.com/akeren/waitlist-intake/pkg/constants"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// requiredFields is also the order missing fields are reported in.
var requiredFields = []string{FieldFullName, FieldEmail, FieldPhone}

// Defaults supplies the values used for an absent timestamp or ipAddress.
type Defaults struct {
	Now      time.Time
	ClientIP string
}

// ValidateSubmission checks required fields and the email address, then
// builds the record with optional fields defaulted. It performs no I/O.
func ValidateSubmission(input SubmissionInput, defaults Defaults) (*csvstore.Record, error) {
	var missing []string
	for _, field := range requiredFields {
		if isBlank(input, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, newMissingFieldsError(missing)
	}

	email, _ := input.lookup(FieldEmail)
	if err := validate.Var(email, "email"); err != nil {
		return nil, newInvalidEmailError(email)
	}

	clientIP := strings.TrimSpace(defaults.ClientIP)
	if clientIP == "" {
		clientIP = constants.UnknownClientAddress
	}

	return &csvstore.Record{
		FullName:    input.valueOr(FieldFullName, ""),
		Email:       email,
		CountryCode: input.valueOr(FieldCountryCode, ""),
		Phone:       input.valueOr(FieldPhone, ""),
		Country:     input.valueOr(FieldCountry, ""),
		Interests:   input.valueOr(FieldInterests, ""),
		Timestamp:   input.valueOr(FieldTimestamp, defaults.Now.Format(constants.SubmissionTimestampFormat)),
		IPAddress:   input.valueOr(FieldIPAddress, clientIP),
	}, nil
}

// isBlank is true for an absent or null field and for one whose text is
// empty. false, 0, "0" and [] are present values.
func isBlank(input SubmissionInput, field string) bool {
	value, ok := input.lookup(field)
	if !ok {
		return true
	}
	if field == FieldFullName {
		value = strings.TrimSpace(value)
	}
	return value == ""
}
