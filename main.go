package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/cropguard/internal/classifier"
	"github.com/example/cropguard/internal/config"
	"github.com/example/cropguard/internal/handlers"
	"github.com/example/cropguard/internal/logging"
	"github.com/example/cropguard/internal/repository"
	"github.com/example/cropguard/internal/usecase"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db := initDatabase(ctx, cfg, logger)
	if err := repository.AutoMigrate(ctx, db); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}
	users := repository.NewUserRepository(db)
	predictions := repository.NewPredictionRepository(db)

	var cache usecase.Cache
	if cfg.CacheEnabled() {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		defer redisCancel()
		cache = usecase.NewRedisCache(initRedis(redisCtx, cfg, logger))
	}

	model, err := classifier.Load(cfg.ModelPath, logger)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(err))
	}
	defer model.Close()

	predictionUC := usecase.NewPredictionUseCase(predictions, model, cache, logger)
	accountUC := usecase.NewAccountUseCase(users, logger)

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	r.LoadHTMLGlob("templates/*.html")

	h := handlers.New(predictionUC, accountUC, logger, cfg.JWTSecret, time.Duration(cfg.SessionTTLHr)*time.Hour)
	handlers.RegisterRoutes(r, h)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	logger.Info("CropGuard listening", zap.String("addr", cfg.HTTPAddr))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) *gorm.DB {
	db, err := repository.Open(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	return db
}

func initRedis(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
