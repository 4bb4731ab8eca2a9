package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/sales-dashboard/internal/api"
	"github.com/dvloznov/sales-dashboard/internal/app"
	"github.com/dvloznov/sales-dashboard/internal/config"
	"github.com/dvloznov/sales-dashboard/internal/logger"
	"github.com/dvloznov/sales-dashboard/internal/metrics"
	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/service"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		port       = flag.Int("port", 0, "HTTP server port (overrides PORT)")
	)
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log, err := logger.NewWithConfig(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Open the record store
	ctx := context.Background()
	connectCtx, cancelConnect := context.WithTimeout(ctx, 30*time.Second)
	backend, err := app.OpenStore(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open record store")
	}
	st := store.NewInstrumented(backend, m)

	checkStore(ctx, st, log)

	svc := service.NewTransactions(st)
	handler := api.NewRouter(api.Deps{
		Service:  svc,
		Backend:  st.Backend(),
		Location: loc,
		Metrics:  m,
		Gatherer: reg,
		Log:      log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("backend", st.Backend()).
			Str("timezone", loc.String()).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := st.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close record store")
	}

	log.Info().Msg("Server exited")
}

// checkStore counts the collection once so an empty or unreachable store shows
// up in the boot log rather than on the first request.
func checkStore(ctx context.Context, s store.Store, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := s.Count(ctx, query.Filter{})
	if err != nil {
		log.Warn().Err(err).Msg("Record store check failed")
		return
	}
	if n == 0 {
		log.Warn().Str("backend", s.Backend()).Msg("Record store is empty")
		return
	}
	log.Info().Int64("records", n).Str("backend", s.Backend()).Msg("Record store ready")
}
