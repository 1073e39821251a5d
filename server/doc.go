// Package server exposes a registry over HTTP for inspection.
//
// The API is read-only: it reports health and lists registered keys with
// their strategy and whether they already hold a value. It never resolves
// anything.
//
//	srv := server.New(cfg.Server, di.Default(), "orders", "1.4.0", log)
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Stop(ctx)
//
// NewHandler returns the same routes as a plain http.Handler for mounting
// elsewhere or testing.
package server
