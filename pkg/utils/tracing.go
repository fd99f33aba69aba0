package utils

import "strconv"

const (
	defaultServiceName  = "waitlist-intake"
	defaultOTLPEndpoint = "http://localhost:4318"
)

type TracingSettings struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	// SampleRatio is clamped to [0, 1]; 1 samples every trace.
	SampleRatio float64
}

func LoadTracingSettings() TracingSettings {
	return TracingSettings{
		Enabled:     IsTracingEnabled(),
		ServiceName: OTelServiceName(),
		Endpoint:    GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
		SampleRatio: sampleRatio(),
	}
}

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}

func sampleRatio() float64 {
	raw := GetEnvTrimmed("OTEL_TRACES_SAMPLER_ARG")
	if raw == "" {
		return 1
	}

	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}

	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}
