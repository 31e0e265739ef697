package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trackboard/trackboard/internal/config"
	"github.com/trackboard/trackboard/internal/es"
	"github.com/trackboard/trackboard/internal/handlers"
	"github.com/trackboard/trackboard/internal/httpserver"
	"github.com/trackboard/trackboard/internal/logging"
	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/mykafka"
	"github.com/trackboard/trackboard/internal/repo"
	"github.com/trackboard/trackboard/internal/service"
	"github.com/trackboard/trackboard/internal/tokens"
)

const issueIndex = "issues"

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := cfg.InitDB(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
	}

	var searchHandler *handlers.SearchHandler
	issueHandlerES := handlers.NewIssueHandler(db, producer, nil, issueIndex)
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, issueIndex)
		issueHandlerES = handlers.NewIssueHandler(db, producer, esClient, issueIndex)
	}

	codec := tokens.NewCodec(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTL)*time.Second)
	store := repo.NewGormRepo(db)
	authSvc := service.NewAuthService(store, codec, time.Duration(cfg.RefreshTokenTTL)*time.Second)
	guard := authmw.NewGuard(authSvc)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Guard:         guard,
		Auth:          handlers.NewAuthHandler(authSvc, producer, cfg.RefreshTokenTTL, cfg.Production()),
		Organizations: handlers.NewOrganizationHandler(db),
		Projects:      handlers.NewProjectHandler(db, producer),
		Boards:        handlers.NewBoardHandler(db),
		Lists:         handlers.NewListHandler(db),
		Issues:        issueHandlerES,
		Comments:      handlers.NewCommentHandler(db),
		Users:         handlers.NewUserHandler(db),
		Roles:         handlers.NewRoleHandler(db),
		Permissions:   handlers.NewPermissionHandler(db),
		Admin:         handlers.NewAdminHandler(db, codec),
		Search:        searchHandler,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
