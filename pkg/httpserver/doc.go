// Package httpserver runs the onboarding HTTP API with graceful shutdown and
// health endpoints.
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives, then
// calls http.Server.Shutdown bounded by WithShutdownTimeout and runs the stop
// hooks, which is where the flow registry and the draft storage are closed.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(*slog.Logger) { registry.Close() }),
//	)
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.HealthTimeout,
//		httpserver.Check{Name: "drafts", Fn: backend.Healthcheck}))
//	err := srv.Run(ctx, r)
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown.
package httpserver
