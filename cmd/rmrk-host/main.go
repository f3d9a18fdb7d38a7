package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	worker "github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/infrastructure"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/metrics"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/server"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/services"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/sql_db"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	runService(context.Background())
}

func runService(ctx context.Context) {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msgf("No .env file found: %s", err)
	}

	ctx, ctxCancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer ctxCancel()

	config := infrastructure.NewConfig()
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	provider := infrastructure.NewProvider(config)
	db, err := provider.InitDBConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer db.Close()

	if err := sql_db.RunMigrations(ctx, db.DB, config.DbDriverName); err != nil {
		log.Fatal().Err(err).Send()
	}

	collector := metrics.NewCollector()
	storage := sql_db.NewSqlDB(db)
	rmrkEngine := engine.New(storage, engine.WithMaxNestingDepth(config.MaxNestingDepth))
	host := engine.NewHost(rmrkEngine, collector)
	srv := server.New(config.HostListenAddr, server.NewRouter(host, collector))

	if config.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is not set, admin endpoints will refuse every request")
	}
	adminSrv := server.New(config.AdminListenAddr, server.NewAdminRouter(rmrkEngine, config.AdminToken))
	go func() {
		log.Info().Msgf("Admin listening on: %s", config.AdminListenAddr)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("admin server stopped")
			ctxCancel()
		}
	}()

	auditService := services.NewAuditService(infrastructure.NewHelper(config), collector, config.MaxNestingDepth)
	go worker.Start(ctx, ctxCancel, config, auditService, storage, config.WorkerProcessIntervalAudit)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, s := range []*http.Server{srv, adminSrv} {
			if err := s.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msgf("shutdown of %s", s.Addr)
			}
		}
	}()

	log.Info().Msgf("Listening on: %s", config.HostListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("error while listening")
	}
}
