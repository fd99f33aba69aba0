package config

import (
	"testing"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		want otlpTarget
	}{
		{"http://collector:4318", otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
		{"https://otel.example.com/custom/traces", otlpTarget{hostport: "otel.example.com", path: "/custom/traces"}},
		{" collector:4318 ", otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
		{"HTTPS://otel.example.com/", otlpTarget{hostport: "otel.example.com", path: "/v1/traces"}},
	}

	for _, tt := range tests {
		got, err := parseOTLPEndpoint(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseOTLPEndpoint_Invalid(t *testing.T) {
	for _, raw := range []string{"", "grpc://collector:4317", "collector:4318/v1/traces", "http://"} {
		_, err := parseOTLPEndpoint(raw)
		assert.Error(t, err, raw)
	}
}

func TestOTLPTarget_Options(t *testing.T) {
	assert.Len(t, otlpTarget{hostport: "c:4318", path: "/v1/traces", insecure: true}.options(), 3)
	assert.Len(t, otlpTarget{hostport: "c:4318", path: "/v1/traces"}.options(), 2)
}

func TestSetupTracing_DisabledReturnsNil(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(log.NewLoggerWithJSONOutput())
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestSetupTracing_InvalidEndpoint(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "grpc://collector:4317")

	_, err := SetupTracing(log.NewLoggerWithJSONOutput())
	assert.ErrorContains(t, err, "unsupported OTLP endpoint scheme")
}

func TestResourceAttributes_IncludesEnvironment(t *testing.T) {
	t.Setenv(AppEnvKey, "Staging")

	attrs := resourceAttributes("waitlist-intake")
	require.Len(t, attrs, 2)
	assert.Equal(t, "staging", attrs[1].Value.AsString())
}
