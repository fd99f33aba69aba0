package waitlist

import (
	"encoding/json"
	"testing"

	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubmission(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		input, err := DecodeSubmission([]byte(`{"fullName":"Jane","phone":5551234,"extra":{"a":1}}`))

		require.NoError(t, err)
		assert.Equal(t, "Jane", input[FieldFullName])
		assert.Equal(t, json.Number("5551234"), input[FieldPhone])
		assert.Contains(t, input, "extra")
	})

	t.Run("null is an empty submission", func(t *testing.T) {
		input, err := DecodeSubmission([]byte(`null`))

		require.NoError(t, err)
		assert.Empty(t, input)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"truncated", `{"fullName":`, "unexpected EOF"},
		{"whitespace only", `   `, "unexpected end of JSON input"},
		{"trailing data", `{"a":1} {"b":2}`, "invalid character after top-level value"},
		{"array", `["a"]`, "expected a JSON object, got array"},
		{"string", `"hello"`, "expected a JSON object, got string"},
		{"number", `42`, "expected a JSON object, got number"},
		{"syntax", `{a}`, "invalid character 'a' looking for beginning of object key string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := DecodeSubmission([]byte(tt.body))

			assert.Nil(t, input)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestToWaitlistEntryModel(t *testing.T) {
	assert.Nil(t, ToWaitlistEntryModel(nil))

	entry := ToWaitlistEntryModel(&csvstore.Record{
		FullName:  "Jane",
		Email:     "jane@example.com",
		Phone:     "1",
		Timestamp: "2024-03-09 14:05:07",
		IPAddress: "Unknown",
	})

	assert.Equal(t, "Jane", entry.FullName)
	assert.Equal(t, "2024-03-09 14:05:07", entry.SubmittedAt)
	assert.Equal(t, "Unknown", entry.IPAddress)
	assert.Empty(t, entry.ID)
}
