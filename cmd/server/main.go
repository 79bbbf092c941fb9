package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/config"
	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/internal/httpserver"
	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/search"
	"github.com/Skotchmaster/todo_list/internal/secret"
	"github.com/Skotchmaster/todo_list/internal/service"
	pkgdb "github.com/Skotchmaster/todo_list/pkg/db"
	"github.com/Skotchmaster/todo_list/pkg/logging"
	"github.com/Skotchmaster/todo_list/pkg/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	r := repo.New(db)
	if err := r.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	codec, err := secret.NewCodec(cfg.CipherKey)
	if err != nil {
		log.Fatalf("cipher: %v", err)
	}
	issuer, err := tokens.NewIssuer(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var index search.Index
	if cfg.ESURL != "" {
		client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		esIndex := search.NewESIndex(client, cfg.ESIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = esIndex.EnsureIndex(ctx)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = esIndex
		logger.Info("search_enabled", "index", cfg.ESIndex)
	}

	users := &service.UserService{Repo: r, Codec: codec, Events: pub, Index: index}
	authSvc := &service.AuthService{Repo: r, Codec: codec, Tokens: issuer, TTL: cfg.AccessTokenExpire, Events: pub}
	todos := &service.ToDoService{Repo: r, Index: index, Events: pub}

	if cfg.BootstrapAdmin() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		admin, created, err := users.EnsureAdmin(logging.IntoContext(ctx, logger), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		logger.Info("bootstrap_admin", "user_id", admin.ID, "changed", created)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Use(httpserver.Common(logger)...)

	httpserver.Register(e, &httpserver.Deps{
		DB:    db,
		Auth:  auth.NewBearerAuth(authSvc),
		Login: &httpserver.AuthHTTP{Svc: authSvc},
		Users: &httpserver.UsersHTTP{Svc: users},
		ToDos: &httpserver.ToDosHTTP{Svc: todos},
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("stopped")
}
