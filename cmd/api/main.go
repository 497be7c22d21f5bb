package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/unxchange/auth-service/docs" // Swagger docs (generated)
	"github.com/unxchange/auth-service/internal/auth"
	"github.com/unxchange/auth-service/internal/config"
	"github.com/unxchange/auth-service/internal/database"
	httpServer "github.com/unxchange/auth-service/internal/http"
	"github.com/unxchange/auth-service/internal/logging"
	"github.com/unxchange/auth-service/internal/notification"
	"github.com/unxchange/auth-service/internal/user"
)

// @title           UnxChange Authentication Service
// @version         0.1.0
// @description     API for managing users, roles and authentication.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// User store, optionally fronted by a redis lookup cache
	var userStore user.Store = user.NewRepository(db)
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		userStore = user.NewCachedStore(userStore, redisClient, logger)
		logger.Info("user lookup cache enabled")
	}

	// Token service holds the process-wide signing secret; the secret is
	// injected here and nowhere else.
	tokenService, err := auth.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Welcome notifications go through a queue so registration never
	// waits on, or fails because of, the notification service.
	var sender notification.Sender = notification.NopSender{}
	if cfg.Notification.BaseURL != "" {
		sender = notification.NewClient(cfg.Notification.BaseURL, cfg.Notification.Timeout)
	}
	dispatcher := notification.NewDispatcher(sender, logger, cfg.Notification.QueueSize)

	authService := auth.NewService(
		userStore,
		tokenService,
		dispatcher,
		logger,
		cfg.Auth.AccessTokenDuration,
	)

	authHandler := auth.NewHandler(authService, logger)
	authMiddleware := auth.NewMiddleware(authService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		dispatcher.Close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Drain queued notifications after the server stops accepting
		// registrations.
		dispatcher.Close()
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
