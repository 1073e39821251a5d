package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

type clock struct {
	Zone string
}

type scheduler struct {
	Clock    *clock
	Interval int `wire:"interval"`
}

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

// newTestApp builds an app on a private registry with silent output.
func newTestApp(t *testing.T, cfg *testConfig, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	base := []Option{
		WithRegistry(di.New()),
		WithLogger(logger.NewNop()),
		WithSummaryWriter(&out),
	}
	app, err := NewApp(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Registry != di.Default() {
		t.Error("expected the default registry when none is given")
	}
	if app.Logger == nil || app.Summary == nil {
		t.Error("expected logger and summary")
	}
	if app.Cfg.Registry.FieldTag != di.DefaultFieldTag {
		t.Errorf("expected defaults applied, got field tag %q", app.Cfg.Registry.FieldTag)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{
		ServiceConfig: config.ServiceConfig{Environment: "development"},
	}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppWithOptions(t *testing.T) {
	reg := di.New()
	app, _ := newTestApp(t, newTestConfig("test", "1.0"),
		WithGracefulTimeout(30*time.Second),
		WithRegistry(reg),
	)

	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if app.Registry != reg {
		t.Error("expected custom registry")
	}
}

func TestDefaultGracefulTimeout(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
}

func TestNewAppAppliesFieldTag(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	cfg.Registry.FieldTag = "wire"
	app, _ := newTestApp(t, cfg)

	if err := app.Registry.Register(di.KeyOf[*clock](), &clock{Zone: "UTC"}); err != nil {
		t.Fatal(err)
	}
	s, err := di.InstantiateAs[*scheduler](app.Registry, map[string]any{"interval": 5})
	if err != nil {
		t.Fatalf("instantiate failed: %v", err)
	}
	if s.Interval != 5 || s.Clock == nil || s.Clock.Zone != "UTC" {
		t.Errorf("unexpected scheduler %+v", s)
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))

	order := []string{}
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return nil
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	if err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	}); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, expected %q", i, order[i], v)
		}
	}
}

func TestRunTaskResolvesConfiguredDependencies(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if err := a.Registry.Register(di.KeyOf[*clock](), &clock{Zone: "UTC"}); err != nil {
			return err
		}
		return a.Registry.Singleton(di.KeyOf[*scheduler]())
	})

	var got *scheduler
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		got = di.MustResolve[*scheduler](app.Registry)
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if got == nil || got.Clock.Zone != "UTC" {
		t.Errorf("expected wired scheduler, got %+v", got)
	}
	if again := di.MustResolve[*scheduler](app.Registry); again != got {
		t.Error("expected the singleton instance")
	}
}

func TestRunTaskError(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected 'task error', got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel() // simulate signal
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunTaskHookErrors(t *testing.T) {
	fail := func(ctx context.Context) error { return fmt.Errorf("boom") }

	tests := []struct {
		name    string
		setup   func(a *App[*testConfig])
		wantErr string
		runs    bool
	}{
		{"start hook", func(a *App[*testConfig]) { a.OnStart(fail) }, "onStart hook failed", false},
		{"configure", func(a *App[*testConfig]) {
			a.OnConfigure(func(context.Context, *App[*testConfig]) error { return fmt.Errorf("boom") })
		}, "configuration failed", false},
		{"ready hook", func(a *App[*testConfig]) { a.OnReady(fail) }, "onReady hook failed", false},
		{"stop hook", func(a *App[*testConfig]) { a.OnStop(fail) }, "hook 0 failed", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newTestApp(t, newTestConfig("test", "1.0"))
			tc.setup(app)

			ran := false
			err := app.RunTask(context.Background(), func(ctx context.Context) error {
				ran = true
				return nil
			})
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if ran != tc.runs {
				t.Errorf("task ran = %v, want %v", ran, tc.runs)
			}
		})
	}
}

func TestHookErrorStopsExecution(t *testing.T) {
	called := false
	err := runHooks(context.Background(), []Hook{
		func(ctx context.Context) error { return fmt.Errorf("first") },
		func(ctx context.Context) error { called = true; return nil },
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("expected execution to stop at the first failing hook")
	}
}

func TestShutdownClosesRegisteredValues(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	c := &closer{}
	if err := app.Registry.Register(di.KeyOf[*closer](), c); err != nil {
		t.Fatal(err)
	}

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !c.closed {
		t.Error("expected registered closer to be closed")
	}
}

func TestShutdownReportsCloseError(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	_ = app.Registry.Register(di.KeyOf[*closer](), &closer{err: fmt.Errorf("close failed")})

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("expected close error, got %v", err)
	}
}

func TestServerLifecycle(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	cfg.Server.Enabled = true
	app, out := newTestApp(t, cfg)
	cfg.Server.Port = 0 // ApplyDefaults replaced the zero port; bind any free one

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	addr := app.ServerAddr()
	if addr == "" {
		t.Fatal("expected a bound server address")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if !strings.Contains(out.String(), "/registrations") {
		t.Errorf("expected routes in summary, got %q", out.String())
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if app.ServerAddr() != "" {
		t.Error("expected server to be released after shutdown")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test", "1.0"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal on context cancel, got %v", sig)
	}
}

func TestSummaryDisplaySummary(t *testing.T) {
	reg := di.New(di.WithLogger(logger.NewNop()))
	_ = reg.Register(di.KeyOf[*clock](), &clock{})
	_ = reg.Lazy(di.KeyOf[*scheduler](), nil)

	var out bytes.Buffer
	s := NewSummary("svc", "1.2.3")
	s.SetOutput(&out)
	s.SetStartupDuration(1500 * time.Millisecond)
	s.TrackInfrastructure("Server", "http", "active", "127.0.0.1:8089", 0, true)
	s.TrackRoute("GET", "/healthz", "health")
	s.DisplaySummary(reg)

	text := out.String()
	for _, want := range []string{
		"svc v1.2.3 started in 1.50s",
		"✅ Server: 127.0.0.1:8089",
		"Registrations (2)",
		"*bootstrap.clock [eager] (initialized)",
		"└── ⚡ *bootstrap.scheduler [lazy] (deferred)",
		"1/2 registrations hold a value",
		"/healthz → health",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in summary:\n%s", want, text)
		}
	}
}

func TestSummaryDisplaySummaryEmpty(t *testing.T) {
	var out bytes.Buffer
	s := NewSummary("svc", "1.0")
	s.SetOutput(&out)
	s.DisplaySummary(nil)
	if !strings.Contains(out.String(), "No registrations") {
		t.Errorf("expected empty registrations notice, got %q", out.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Error("unexpected tree prefixes")
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status  string
		healthy bool
		want    string
	}{
		{"active", true, "✅"},
		{"disabled", true, "⏸️"},
		{"failed", true, "❌"},
		{"active", false, "❌"},
		{"other", true, "⚠️"},
	}
	for _, tc := range tests {
		if got := statusIcon(tc.status, tc.healthy); got != tc.want {
			t.Errorf("statusIcon(%q, %v) = %q, want %q", tc.status, tc.healthy, got, tc.want)
		}
	}
}

func TestStrategyIcon(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []di.Strategy{di.StrategyEager, di.StrategySingleton, di.StrategyLazy, di.StrategyFactory} {
		icon := strategyIcon(s)
		if seen[icon] {
			t.Errorf("duplicate icon %q for %s", icon, s)
		}
		seen[icon] = true
	}
}
