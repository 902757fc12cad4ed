package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WinterTin/user-center/internal/config"
	"github.com/WinterTin/user-center/internal/handler"
	"github.com/WinterTin/user-center/internal/middleware"
	"github.com/WinterTin/user-center/internal/migrations"
	redisClient "github.com/WinterTin/user-center/internal/redis"
	"github.com/WinterTin/user-center/internal/repository"
	"github.com/WinterTin/user-center/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisstore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	redigo "github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const sessionCookieName = "uc_session"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("user center stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (account store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if cfg.RunMigrations {
		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
	}

	// Redis connection (view cache)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer redis.Close()

	store := repository.NewCachedUserRepository(repository.NewUserRepository(db), redis.Client, cfg.CacheTTL, logger)
	accounts := service.NewAccountService(store, cfg.Policy(), logger)
	userHandler := handler.NewUserHandler(accounts)

	sessionStore, err := newSessionStore(cfg, logger)
	if err != nil {
		return err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(sessions.Sessions(sessionCookieName, sessionStore))

	userHandler.RegisterRoutes(router.Group("/api/user"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("user center starting", "port", cfg.Port, "mode", cfg.GinMode, "sessionStore", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(cfg *config.Config, logger *slog.Logger) (sessions.Store, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		// sessions will not survive a restart
		logger.Warn("SESSION_SECRET not set, using a random key")
		secret = uuid.NewString()
	}

	var store sessions.Store
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		pool := &redigo.Pool{
			MaxIdle:     10,
			IdleTimeout: 240 * time.Second,
			Dial: func() (redigo.Conn, error) {
				return redigo.Dial("tcp", cfg.RedisAddr,
					redigo.DialPassword(cfg.RedisPassword),
					redigo.DialDatabase(cfg.RedisDB),
					redigo.DialConnectTimeout(5*time.Second),
				)
			},
		}
		rs, err := redisstore.NewStoreWithPool(pool, sessionKeys(secret)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	default:
		store = cookie.NewStore(sessionKeys(secret)...)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// sessionKeys returns a securecookie hash key and a 32-byte AES block key,
// so session cookies are encrypted as well as signed.
func sessionKeys(secret string) [][]byte {
	block := sha256.Sum256([]byte("user-center/session-encryption/" + secret))
	return [][]byte{[]byte(secret), block[:]}
}
