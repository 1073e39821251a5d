// Package observability connects the dependency registry to OpenTelemetry.
//
// Tracing and metrics export over OTLP/HTTP:
//
//	svc := observability.ServiceInfo{Name: "orders", Version: "1.4.0"}
//	tp, err := observability.InitTracer(ctx, svc, cfg.Observability.Tracing)
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, svc, cfg.Observability.Metrics)
//	defer mp.Shutdown(ctx)
//
// Instrument plugs into the registry so every resolve and instantiate gets
// a span (nested along the dependency chain) and is counted and timed:
//
//	metrics, _ := observability.NewMetrics(observability.Meter())
//	di.Configure(di.WithInstrument(observability.NewInstrument(observability.Tracer(), metrics)))
//
// Health reporting:
//
//	health := observability.NewServiceHealth("orders", "1.4.0")
//	health.AddComponent(observability.RegistryChecker{Registry: di.Default()}.CheckHealth(ctx))
package observability
