package waitlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/akeren/waitlist-intake/internal/models"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
)

// Submission field names as sent by the signup form.
const (
	FieldFullName    = "fullName"
	FieldEmail       = "email"
	FieldCountryCode = "countryCode"
	FieldPhone       = "phone"
	FieldCountry     = "country"
	FieldInterests   = "interests"
	FieldTimestamp   = "timestamp"
	FieldIPAddress   = "ipAddress"
)

// SubmissionInput is the decoded request body. Values keep their JSON types
// until validation turns them into record fields.
type SubmissionInput map[string]any

type SubmissionResult struct {
	File      string
	Timestamp string
	Record    csvstore.Record
}

// DecodeSubmission parses a request body into a SubmissionInput. A JSON null
// decodes to an empty input so every required field is reported missing.
func DecodeSubmission(body []byte) (SubmissionInput, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}

	switch v := raw.(type) {
	case nil:
		return SubmissionInput{}, nil
	case map[string]any:
		return SubmissionInput(v), nil
	default:
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonKind(v))
	}
}

// lookup returns the field as text. Absent and null values report false.
func (in SubmissionInput) lookup(field string) (string, bool) {
	v, ok := in[field]
	if !ok || v == nil {
		return "", false
	}
	return stringify(v), true
}

func (in SubmissionInput) valueOr(field, fallback string) string {
	if v, ok := in.lookup(field); ok {
		return v
	}
	return fallback
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(encoded)
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	default:
		return strings.ToLower(fmt.Sprintf("%T", v))
	}
}

func ToWaitlistEntryModel(record *csvstore.Record) *models.WaitlistEntry {
	if record == nil {
		return nil
	}
	return &models.WaitlistEntry{
		FullName:    record.FullName,
		Email:       record.Email,
		CountryCode: record.CountryCode,
		Phone:       record.Phone,
		Country:     record.Country,
		Interests:   record.Interests,
		SubmittedAt: record.Timestamp,
		IPAddress:   record.IPAddress,
	}
}
