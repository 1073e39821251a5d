// Package bootstrap runs a service built around a dependency registry.
//
// NewApp loads nothing by itself: it takes a typed config, applies defaults,
// validates it, sets up logging and points the registry at that logger. Run
// then installs tracing and metrics on the registry when enabled, runs the
// configure callbacks where services register their dependencies, starts the
// introspection server and blocks until a signal arrives.
//
// # Quick Start
//
//	var cfg MyConfig
//	if err := config.LoadConfig("orders", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*MyConfig]) error {
//	    return a.Registry.Singleton(di.KeyOf[*OrderService]())
//	})
//	if err := app.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
