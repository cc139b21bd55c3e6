package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/db"
	"github.com/rosterhq/roster/internal/export"
	"github.com/rosterhq/roster/internal/httpapi"
	"github.com/rosterhq/roster/internal/ingestion"
	"github.com/rosterhq/roster/internal/middleware"
	"github.com/rosterhq/roster/internal/repository"
)

func main() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	orgRepo := repository.NewOrganizationRepository(conn.Pool)
	contactRepo := repository.NewContactRepository(conn)
	savedFilterRepo := repository.NewSavedFilterRepository(conn.Pool)

	ingestService := ingestion.NewService(contactRepo).WithBatchSize(cfg.IngestBatchSize)
	exportService := export.NewService(contactRepo, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/api/organizations", httpapi.NewOrganizationHandler(orgRepo))
	mux.Handle("/api/organizations/", httpapi.NewOrganizationHandler(orgRepo))
	mux.Handle("/api/contacts", httpapi.NewContactHandler(contactRepo))
	mux.Handle("/api/contacts/", httpapi.NewContactHandler(contactRepo))
	mux.Handle("/api/filters/", httpapi.NewFilterHandler())
	mux.Handle("/api/saved-filters", httpapi.NewSavedFilterHandler(savedFilterRepo))
	mux.Handle("/api/saved-filters/", httpapi.NewSavedFilterHandler(savedFilterRepo))
	mux.Handle("/api/imports", ingestion.NewHTTPHandler(ingestService))
	mux.Handle("/api/exports", export.NewHTTPHandler(exportService))

	handler := corsHandler.Handler(middleware.LoggingMiddleware(mux))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("starting roster server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}
