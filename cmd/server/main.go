package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/config"
	"github.com/zeeeeby/cathouse-server/internal/events"
	"github.com/zeeeeby/cathouse-server/internal/hash"
	"github.com/zeeeeby/cathouse-server/internal/httpserver"
	"github.com/zeeeeby/cathouse-server/internal/logging"
	"github.com/zeeeeby/cathouse-server/internal/mediaproxy"
	"github.com/zeeeeby/cathouse-server/internal/middleware"
	"github.com/zeeeeby/cathouse-server/internal/repo"
	"github.com/zeeeeby/cathouse-server/internal/search"
	"github.com/zeeeeby/cathouse-server/internal/service"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repo.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	store := repo.New(db)

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	var users *search.Users
	if cfg.ESURL != "" {
		esClient, esErr := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if esErr != nil {
			logger.Warn("elasticsearch unavailable, user search disabled", "error", esErr)
		} else {
			users = search.NewUsers(esClient, "users")
		}
	}

	var media *mediaproxy.Client
	if cfg.MediaURL != "" {
		media = mediaproxy.NewClient(cfg.MediaURL, cfg.MediaAccessToken)
	}

	svc := &service.AuthService{
		Store:  store,
		Hasher: hash.New(cfg.BcryptCost),
		Secret: cfg.SecretKey,
		Events: producer,
		Search: users,
	}
	authMW := middleware.New(cfg.SecretKey, store)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.HTTPErrorHandler = httpserver.ErrorHandler(logger)
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:  &httpserver.AuthHTTP{Svc: svc},
		User:  &httpserver.UserHTTP{Svc: svc, Search: users},
		Media: &httpserver.MediaHTTP{Store: store, Client: media, PermittedReferers: cfg.PermittedReferers},
		MW:    authMW,
	})

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
