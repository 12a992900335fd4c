package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const defaultTracesPath = "/v1/traces"

// otlpEndpoint is where spans are exported over OTLP/HTTP.
type otlpEndpoint struct {
	hostport string
	path     string
	insecure bool
}

// SetupTracing installs a global tracer provider when OTEL_TRACES_ENABLED is
// set. The returned func flushes pending spans; it is nil when tracing is off.
func SetupTracing(logger *log.Logger) (func(context.Context) error, error) {
	if !utils.IsTracingEnabled() {
		return nil, nil
	}

	raw := utils.GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
	endpoint, err := parseOTLPEndpoint(raw)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint.hostport),
		otlptracehttp.WithURLPath(endpoint.path),
	}
	if endpoint.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	serviceName := utils.OTelServiceName()
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", GetAppEnv()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	ratio := samplingRatio(utils.GetEnvTrimmed("OTEL_TRACES_SAMPLER_ARG"))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled", "service", serviceName, "endpoint", raw, "sample_ratio", ratio)
	return tp.Shutdown, nil
}

// samplingRatio parses a ratio in [0, 1]; anything else samples every trace.
func samplingRatio(raw string) float64 {
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}
	return ratio
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
func parseOTLPEndpoint(raw string) (otlpEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpEndpoint{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		// otlptracehttp.WithEndpoint wants host:port only.
		if strings.ContainsAny(raw, "/?#") {
			return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: use http://host:port/path to set a path", raw)
		}
		return otlpEndpoint{hostport: raw, path: defaultTracesPath, insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return otlpEndpoint{}, fmt.Errorf("unsupported OTLP endpoint scheme %q", u.Scheme)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = defaultTracesPath
	}
	return otlpEndpoint{hostport: u.Host, path: path, insecure: scheme == "http"}, nil
}
