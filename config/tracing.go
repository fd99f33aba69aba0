package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultOTLPTracesPath = "/v1/traces"

// otlpTarget is an OTLP/HTTP collector address split the way otlptracehttp
// wants it.
type otlpTarget struct {
	hostport string
	path     string
	insecure bool
}

func (t otlpTarget) options() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.hostport),
		otlptracehttp.WithURLPath(t.path),
	}
	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// SetupTracing installs a global OTLP/HTTP tracer provider. It returns a nil
// shutdown func when OTEL_TRACES_ENABLED is not true.
func SetupTracing(logger *log.Logger) (func(context.Context) error, error) {
	settings := utils.LoadTracingSettings()
	if !settings.Enabled {
		return nil, nil
	}

	target, err := parseOTLPEndpoint(settings.Endpoint)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exporter, err := otlptracehttp.New(ctx, target.options()...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(settings.ServiceName)...))
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(settings.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("OpenTelemetry tracing enabled",
		"service", settings.ServiceName,
		"collector", target.hostport+target.path,
		"sample_ratio", settings.SampleRatio,
	)
	return provider.Shutdown, nil
}

func resourceAttributes(serviceName string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if env := GetAppEnv(); env != "" {
		attrs = append(attrs, attribute.String("deployment.environment", env))
	}
	return attrs
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port,
// which is treated as plain http.
func parseOTLPEndpoint(raw string) (otlpTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpTarget{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return otlpTarget{}, fmt.Errorf("invalid OTLP endpoint %q: a path needs a scheme, e.g. http://host:port/path", raw)
		}
		return otlpTarget{hostport: raw, path: defaultOTLPTracesPath, insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpTarget{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpTarget{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	target := otlpTarget{hostport: u.Host, path: u.EscapedPath()}
	switch strings.ToLower(u.Scheme) {
	case "http":
		target.insecure = true
	case "https":
	default:
		return otlpTarget{}, fmt.Errorf("unsupported OTLP endpoint scheme %q; use http or https", u.Scheme)
	}
	if target.path == "" || target.path == "/" {
		target.path = defaultOTLPTracesPath
	}
	return target, nil
}
