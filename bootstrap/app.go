package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server"
)

// App runs a service around a dependency registry with uniform lifecycle
// management. The type parameter C is the config type; any struct embedding
// config.ServiceConfig satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*MyConfig]) error {
//	    // a.Cfg is *MyConfig
//	    return a.Registry.Register(di.KeyOf[Clock](), systemClock{})
//	})
//	app.Run(context.Background())
type App[C Config] struct {
	Name     string
	Version  string
	Cfg      C
	Registry *di.Registry
	Logger   *logger.Logger
	Summary  *Summary

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook

	server         *server.Server
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewApp creates an application from a typed config. It applies defaults,
// validates the config, initializes the logger and configures the registry
// with that logger and the configured field tag.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Registry = o.registry
	if app.Registry == nil {
		app.Registry = di.Default()
	}
	app.Registry.Configure(
		di.WithLogger(app.Logger),
		di.WithFieldTag(base.Registry.FieldTag),
	)

	app.Summary = NewSummary(base.Name, base.Version)
	if o.summaryOut != nil {
		app.Summary.SetOutput(o.summaryOut)
	}
	return app, nil
}

// OnConfigure registers a callback to run during the configure phase.
// This is where services register their dependencies.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// Run executes the full lifecycle for long-running services:
// telemetry → OnStart hooks → Configure → server → OnReady hooks →
// block on signal → OnStop hooks → graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run, it does not block on shutdown signals: it runs task and
// shuts down when the task returns or the context is canceled.
//
// Example:
//
//	app, _ := bootstrap.NewApp(&cfg)
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    job := di.MustResolve[*ExportJob](app.Registry)
//	    return job.Run(ctx)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Start performs the startup sequence without blocking. Pair it with
// Shutdown when managing your own lifecycle.
func (a *App[C]) Start(ctx context.Context) error {
	return a.startup(ctx)
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		logger.FieldRegistry, a.Registry.ID(),
	))

	if err := a.initTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	if err := a.startServer(ctx); err != nil {
		return err
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// initTelemetry installs exporters when enabled and hooks the registry's
// resolve and instantiate operations into them.
func (a *App[C]) initTelemetry(ctx context.Context) error {
	base := a.Cfg.GetServiceConfig()
	svc := base.ServiceInfo()
	obs := base.Observability

	if obs.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, svc, obs.Tracing)
		if err != nil {
			return err
		}
		a.tracerProvider = tp
		a.Summary.TrackInfrastructure("Tracing", "otlp", "active", obs.Tracing.Endpoint, 0, true)
	}

	var metrics *observability.Metrics
	if obs.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, svc, obs.Metrics)
		if err != nil {
			return err
		}
		a.meterProvider = mp
		metrics, err = observability.NewMetrics(observability.Meter())
		if err != nil {
			return err
		}
		a.Summary.TrackInfrastructure("Metrics", "otlp", "active", obs.Metrics.Endpoint, 0, true)
	}

	if a.tracerProvider == nil && metrics == nil {
		return nil
	}
	var tracer trace.Tracer
	if a.tracerProvider != nil {
		tracer = observability.Tracer()
	}
	a.Registry.Configure(di.WithInstrument(observability.NewInstrument(tracer, metrics)))
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}

	a.Logger.Info("Running configuration callbacks", logger.Fields("count", len(a.onConfigure)))

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}

	a.Logger.Info("Configuration complete", logger.Fields("entries", a.Registry.Len()))
	return nil
}

func (a *App[C]) startServer(ctx context.Context) error {
	base := a.Cfg.GetServiceConfig()
	if !base.Server.Enabled {
		return nil
	}

	srv := server.New(base.Server, a.Registry, a.Name, a.Version, a.Logger)
	if err := srv.Start(ctx); err != nil {
		a.Summary.TrackInfrastructure("Server", "http", "failed", srv.Addr(), 0, false)
		return err
	}
	a.server = srv
	a.Summary.TrackInfrastructure("Server", "http", "active", srv.Addr(), 0, true)
	a.Summary.TrackRoute("GET", server.PathHealth, "health")
	a.Summary.TrackRoute("GET", server.PathRegistrations, "registrations")
	a.Summary.TrackRoute("GET", server.PathRegistrations+"/{key}", "registration")
	return nil
}

// ServerAddr returns the introspection server's bound address, or "" when
// the server is disabled or not started.
func (a *App[C]) ServerAddr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

// DisplaySummary prints the startup summary with the registry's current
// registrations.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.Registry)
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(_ context.Context) error {
	return a.stop()
}

// stop runs OnStop hooks, stops the server, closes registered values and
// flushes telemetry, all within the graceful timeout.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		a.Logger.Error(what+" error", logger.Fields(logger.FieldError, err.Error()))
		errs = append(errs, err)
	}

	record("OnStop hook", runHooks(ctx, a.onStop))

	if a.server != nil {
		record("Server stop", a.server.Stop(ctx))
		a.server = nil
	}

	record("Registry close", a.Registry.Close())

	if a.meterProvider != nil {
		record("Meter shutdown", a.meterProvider.Shutdown(ctx))
		a.meterProvider = nil
	}
	if a.tracerProvider != nil {
		record("Tracer shutdown", a.tracerProvider.Shutdown(ctx))
		a.tracerProvider = nil
	}

	a.Logger.Info("Application shutdown complete")
	return stderrors.Join(errs...)
}
