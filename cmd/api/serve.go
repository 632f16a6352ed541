package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"crewops/docs"
	"crewops/internal/config"
	handlers "crewops/internal/http/handler"
	"crewops/internal/http/middleware"
	"crewops/internal/logger"
	tracing "crewops/internal/otel"
	"crewops/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location())

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svcs, err := buildServices(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
		Immutable:             true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:             svcs.repos.db,
		Gatherer:       reg,
		Auth:           cfg.Auth,
		StorageEnabled: svcs.store != nil,
		Documents:      svcs.verification,
		Documentation:  svcs.documentation,
		Contracts:      svcs.contracts,
		Candidates:     svcs.candidates,
		Matching:       svcs.matching,
		Assignments:    svcs.assignments,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; every /api/v1 request will be rejected")
	}

	refresher := service.NewRenewalRefresher(svcs.contracts, cfg.Lifecycle.RefreshInterval(), log)
	go refresher.Run(ctx)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
