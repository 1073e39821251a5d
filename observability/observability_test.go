package observability

import (
	"context"
	"io"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/errors"
)

type engine struct{ HP int }

type car struct{ Engine *engine }

func newTestInstrument(t *testing.T) (*Instrument, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return NewInstrument(tp.Tracer("test"), metrics), sr, reader
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt64(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInstrumentSpansFollowDependencyChain(t *testing.T) {
	inst, sr, _ := newTestInstrument(t)
	reg := di.New(di.WithInstrument(inst))
	if err := reg.Singleton(di.KeyOf[*engine]()); err != nil {
		t.Fatalf("Singleton failed: %v", err)
	}
	before := len(sr.Ended())

	if _, err := reg.Resolve(di.KeyOf[*car]()); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	spans := sr.Ended()[before:]
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	// Spans end innermost first.
	engineResolve, carInstantiate, carResolve := spans[0], spans[1], spans[2]

	if engineResolve.Name() != SpanResolve || spanAttr(engineResolve, AttrKey) != "*observability.engine" {
		t.Errorf("unexpected innermost span %s key=%s", engineResolve.Name(), spanAttr(engineResolve, AttrKey))
	}
	if carInstantiate.Name() != SpanInstantiate || spanAttr(carInstantiate, AttrOperation) != "instantiate" {
		t.Errorf("unexpected middle span %s", carInstantiate.Name())
	}
	if engineResolve.Parent().SpanID() != carInstantiate.SpanContext().SpanID() {
		t.Error("expected engine resolve to be a child of car instantiate")
	}
	if carInstantiate.Parent().SpanID() != carResolve.SpanContext().SpanID() {
		t.Error("expected car instantiate to be a child of car resolve")
	}
	if carResolve.Parent().IsValid() {
		t.Error("expected top-level resolve to be a root span")
	}
}

func TestInstrumentRecordsErrors(t *testing.T) {
	inst, sr, reader := newTestInstrument(t)
	reg := di.New(di.WithInstrument(inst))

	if _, err := reg.Resolve(di.KeyOf[io.Writer]()); err == nil {
		t.Fatal("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error {
			t.Errorf("expected error status on %s", s.Name())
		}
		if spanAttr(s, AttrErrorCode) != string(errors.ErrCodeConstruction) {
			t.Errorf("expected error code attribute on %s, got %q", s.Name(), spanAttr(s, AttrErrorCode))
		}
	}

	data := collect(t, reader)
	if got := sumInt64(t, data[MetricErrors]); got != 2 {
		t.Errorf("expected 2 errors recorded, got %d", got)
	}
	if got := sumInt64(t, data[MetricOperations]); got != 2 {
		t.Errorf("expected 2 operations recorded, got %d", got)
	}
	if got := sumInt64(t, data[MetricActive]); got != 0 {
		t.Errorf("expected nothing in flight, got %d", got)
	}
}

func TestInstrumentMetrics(t *testing.T) {
	inst, _, reader := newTestInstrument(t)
	reg := di.New(di.WithInstrument(inst))
	_ = reg.Singleton(di.KeyOf[*engine]())
	for i := 0; i < 3; i++ {
		if _, err := reg.Resolve(di.KeyOf[*engine]()); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}

	data := collect(t, reader)
	ops, ok := data[MetricOperations].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected operations sum, got %T", data[MetricOperations])
	}
	var resolves int64
	for _, dp := range ops.DataPoints {
		op, _ := dp.Attributes.Value(attribute.Key(AttrOperation))
		status, _ := dp.Attributes.Value("status")
		if op.AsString() == "resolve" && status.AsString() == "ok" {
			resolves += dp.Value
		}
	}
	if resolves != 3 {
		t.Errorf("expected 3 successful resolves, got %d", resolves)
	}

	hist, ok := data[MetricDuration].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected duration histogram, got %T", data[MetricDuration])
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 4 {
		t.Errorf("expected 4 timed operations, got %d", count)
	}
	if _, ok := data[MetricErrors]; ok {
		t.Error("expected no error metric without failures")
	}
}

func TestInstrumentWithoutTracerOrMetrics(t *testing.T) {
	inst := NewInstrument(nil, nil)
	ctx, end := inst.Start(context.Background(), di.OpResolve, di.KeyOf[*engine]())
	if ctx == nil {
		t.Fatal("expected context")
	}
	end(nil)
	end(errors.Cycle([]string{"a", "a"}))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", errors.Cycle([]string{"a", "a"}), "CYCLE_DETECTED"},
		{"plain error", io.EOF, "INTERNAL_ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorCode(tc.err); got != tc.want {
				t.Errorf("errorCode() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegistryChecker(t *testing.T) {
	reg := di.New()
	_ = reg.Singleton(di.KeyOf[*engine]())
	_ = reg.Register(di.KeyOf[*car](), nil)

	h := RegistryChecker{Registry: reg}.CheckHealth(context.Background())
	if h.Status != HealthStatusUp {
		t.Errorf("expected up, got %s", h.Status)
	}
	if h.Details["entries"] != "2" || h.Details["initialized"] != "1" {
		t.Errorf("unexpected details: %v", h.Details)
	}
	if h.Details["id"] != reg.ID() {
		t.Errorf("expected registry id, got %q", h.Details["id"])
	}

	if down := (RegistryChecker{}).CheckHealth(context.Background()); down.Status != HealthStatusDown {
		t.Errorf("expected down without registry, got %s", down.Status)
	}
}

func TestServiceHealthAddComponent(t *testing.T) {
	sh := NewServiceHealth("injector", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Fatalf("expected up, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "a", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "b", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "c", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected degraded not to override down, got %s", sh.Status)
	}
	if len(sh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(sh.Components))
	}
}

func TestConfigDefaults(t *testing.T) {
	var tc TracerConfig
	tc.ApplyDefaults()
	if tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 {
		t.Errorf("unexpected tracer defaults: %+v", tc)
	}

	var mc MeterConfig
	mc.ApplyDefaults()
	if mc.Endpoint != "localhost:4318" || mc.Interval != 15*time.Second {
		t.Errorf("unexpected meter defaults: %+v", mc)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestInitTracer(t *testing.T) {
	svc := ServiceInfo{Name: "injector", Version: "1.0.0", Environment: "test"}
	tp, err := InitTracer(context.Background(), svc, TracerConfig{
		Enabled:    true,
		Endpoint:   "localhost:4318",
		Insecure:   true,
		SampleRate: 1.0,
	})
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitMeter(t *testing.T) {
	svc := ServiceInfo{Name: "injector", Version: "1.0.0", Environment: "test"}
	mp, err := InitMeter(context.Background(), svc, MeterConfig{
		Enabled:  true,
		Endpoint: "localhost:4318",
		Insecure: true,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
