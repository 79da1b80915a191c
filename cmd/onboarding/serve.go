package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/httpserver"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/telemetry"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the onboarding HTTP API",
	Long: `Serves the onboarding API under /onboarding, Prometheus metrics under
/metrics and probes under /health/live and /health/ready.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}

		var httpCfg httpserver.Config
		if err := config.Load(&httpCfg, config.WithPrefix("ONBOARDING_")); err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			httpCfg.Addr = addr
		}

		policy := ob.DefaultPolicy()
		if cfg.PolicyFile != "" {
			if policy, err = ob.LoadPolicy(cfg.PolicyFile); err != nil {
				return err
			}
			log.InfoContext(ctx, "loaded onboarding policy", slog.String("path", cfg.PolicyFile))
		}

		backend, err := svc.OpenStorage(ctx, cfg, log)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := telemetry.NewPrometheus(reg)
		if err != nil {
			_ = backend.Close()
			return err
		}

		factory := svc.NewFactory(backend.Storage, cfg,
			svc.Deps{
				Tracker: telemetry.NewMulti(telemetry.NewSlog(log), metrics),
				Logger:  log,
			},
			svc.WithMachineOptions(ob.WithPolicy(policy)),
		)
		registry := svc.NewRegistry(cfg.RegistrySize, factory, log)
		api := svc.NewHandler(registry, svc.NewHeaderResolver(cfg.UserHeader), log)

		r := chi.NewRouter()
		r.Use(middleware.RealIP, middleware.Recoverer)
		r.Mount("/onboarding", api.Routes())
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		r.Get("/health/live", httpserver.LivenessHandler())
		r.Get("/health/ready", httpserver.ReadinessHandler(log, httpCfg.HealthTimeout,
			httpserver.Check{Name: "drafts_" + backend.Name, Fn: backend.Healthcheck},
		))

		srv := httpserver.NewFromConfig(httpCfg,
			httpserver.WithLogger(log),
			httpserver.WithStopHook(func(l *slog.Logger) {
				registry.Close()
				if err := backend.Close(); err != nil {
					l.Error("failed to close draft storage", logger.Error(err))
				}
				l.Info("onboarding service stopped")
			}),
		)
		return srv.Run(ctx, r)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides ONBOARDING_HTTP_ADDR")
}
