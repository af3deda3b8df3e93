package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"city_network/internal/config"
	"city_network/internal/hub"
	"city_network/internal/logger"
	"city_network/internal/middleware"
	"city_network/internal/restriction"
	"city_network/internal/routes"
	"city_network/internal/services"
	"city_network/internal/store"
)

func main() {
	settings := config.LoadSettings()

	// Initialize structured logging to file
	log, logOut := logger.Setup(settings.LogFile, settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, settings, log)
	if err != nil {
		log.WithError(err).Fatal("could not open store")
	}
	defer closeStores()

	policy := services.ExcludeSelf
	if settings.IncludeSelfOnUpdate {
		policy = services.IncludeSelf
	}

	events := hub.New()
	defer events.Close()

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(routes.Deps{
		Stores: stores,
		Auth:   middleware.NewAuth(settings.JWTSecret, settings.TokenTTL),
		Engine: restriction.New(settings.MaxSearchSteps),
		Policy: policy,
		Hub:    events,
		LogOut: logOut,
	})

	// Wrap with CORS
	srv := &http.Server{
		Addr:              "0.0.0.0:" + settings.Port,
		Handler:           middleware.EnableCORS(r, settings.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": settings.StoreBackend,
		}).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStores connects the backend named by STORE_BACKEND and returns a
// function releasing it.
func openStores(ctx context.Context, s *config.Settings, log *logrus.Logger) (*store.Stores, func(), error) {
	switch s.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil

	case config.BackendNeo4j:
		driver, err := config.InitGraph(ctx, s)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureNeo4jSchema(ctx, driver); err != nil {
			driver.Close(context.Background())
			return nil, nil, err
		}
		return store.NewNeo4j(driver), func() { driver.Close(context.Background()) }, nil

	default:
		db, err := config.InitDB(s, log)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return store.NewGorm(db), closeDB, nil
	}
}
