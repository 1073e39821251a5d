package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/injectkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plaintext connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults fills the endpoint and export interval.
func (c *MeterConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The provider must be shut down on application exit.
func InitMeter(ctx context.Context, svc ServiceInfo, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", svc.Name,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns the registry meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metric names.
const (
	MetricOperations = "di.operations"
	MetricDuration   = "di.operation.duration"
	MetricActive     = "di.operations.active"
	MetricErrors     = "di.errors"
)

// Metrics holds the instruments recorded for registry operations.
type Metrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	active     metric.Int64UpDownCounter
	errors     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operations, err := meter.Int64Counter(MetricOperations,
		metric.WithDescription("Registry operations by operation, key and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricOperations, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of registry operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricActive,
		metric.WithDescription("Registry operations in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricActive, err)
	}

	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Failed registry operations by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	return &Metrics{
		operations: operations,
		duration:   duration,
		active:     active,
		errors:     errs,
	}, nil
}

// RecordStart increments the in-flight count.
func (m *Metrics) RecordStart(ctx context.Context, operation string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, operation)))
}

// RecordEnd decrements the in-flight count and records the finished operation.
// code is empty on success.
func (m *Metrics) RecordEnd(ctx context.Context, operation, key, code string, duration time.Duration) {
	status := "ok"
	if code != "" {
		status = "error"
	}
	op := attribute.String(AttrOperation, operation)

	m.active.Add(ctx, -1, metric.WithAttributes(op))
	m.operations.Add(ctx, 1, metric.WithAttributes(op,
		attribute.String(AttrKey, key),
		attribute.String("status", status),
	))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(op))
	if code != "" {
		m.errors.Add(ctx, 1, metric.WithAttributes(op, attribute.String(AttrErrorCode, code)))
	}
}
