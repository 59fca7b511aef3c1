//	@title			BoxDrop API
//	@version		1.0
//	@description	Share links that let guests drop photos into an owner's cloud storage folder.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session JWT from the identity provider. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/config"
	"github.com/boxdrop/service/internal/credential"
	"github.com/boxdrop/service/internal/db"
	"github.com/boxdrop/service/internal/events"
	"github.com/boxdrop/service/internal/logger"
	"github.com/boxdrop/service/internal/secretbox"
	"github.com/boxdrop/service/internal/storage"
	"github.com/boxdrop/service/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, zl); err != nil {
		zl.Fatal("database migration failed", zap.Error(err))
	}

	key, err := cfg.SealingKey()
	if err != nil {
		zl.Fatal("invalid sealing key", zap.Error(err))
	}
	if key == nil {
		zl.Warn("TOKEN_SEALING_KEY not set, provider tokens are stored unsealed")
	}
	box, err := secretbox.New(key)
	if err != nil {
		zl.Fatal("sealing init failed", zap.Error(err))
	}

	broker := newBroker(ctx, cfg, zl)
	defer func() { _ = broker.Close() }()

	// Wire dependencies: repository → service → handler
	credRepo := credential.NewRepository(pool, box)
	refresher := credential.NewRefresher(credRepo, credential.OAuthClient{
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		TokenURL:     cfg.ProviderTokenURL,
	}, nil, cfg.ProviderTimeout, zl)
	credSvc := credential.NewService(credRepo, refresher, cfg.ProviderName, cfg.TokenRefreshMargin, zl)
	credHandler := credential.NewHandler(credSvc, zl)

	provider := storage.NewProvider(storage.Deps{
		Credentials: credSvc,
		HTTP:        resty.New().SetHeader("Accept", "application/json"),
		Margin:      cfg.TokenRefreshMargin,
		Timeout:     cfg.ProviderTimeout,
		Log:         zl,
	}, storage.Endpoints{
		API:     cfg.ProviderAPIURL,
		Upload:  cfg.ProviderUploadURL,
		Profile: cfg.ProviderProfileURL,
	})
	storageHandler := storage.NewHandler(provider, cfg.ProviderName, zl)

	collRepo := collection.NewRepository(pool)
	allocator := collection.NewAllocator(collRepo, collection.AllocatorConfig{
		CodeLength:  cfg.CodeLength,
		MaxAttempts: cfg.CodeMaxAttempts,
		Retention:   cfg.RetentionWindow,
	}, zl)
	collSvc := collection.NewService(collRepo, allocator, provider, broker, cfg.ProviderName, cfg.AppOrigin, zl)
	collHandler := collection.NewHandler(collSvc, zl)
	feedHandler := events.NewHandler(broker, collSvc.Snapshot, cfg.AppOrigin, zl)

	gateway := upload.NewGateway(collRepo, provider, collSvc, upload.Config{
		Provider:    cfg.ProviderName,
		Concurrency: cfg.UploadConcurrency,
		Timeout:     cfg.UploadTimeout,
	}, zl)
	uploadHandler := upload.NewHandler(gateway, upload.Limits{
		MaxFileBytes: cfg.MaxUploadBytes,
		MaxFiles:     cfg.MaxFilesPerRequest,
	}, zl)

	r := newRouter(routerConfig{
		AppOrigin:        cfg.AppOrigin,
		JWTSecret:        cfg.JWTSecret,
		UploadGateSecret: cfg.UploadGateSecret,
	}, handlers{
		credential: credHandler,
		storage:    storageHandler,
		collection: collHandler,
		feed:       feedHandler,
		upload:     uploadHandler,
	}, pool.Ping, zl)

	// No write deadline: change feed connections stay open and a batch
	// upload may run several per-file timeouts back to back.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		zl.Info("swagger UI available", zap.String("url", "http://localhost:"+cfg.Port+"/swagger/"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zl.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
		return
	}

	zl.Info("server stopped")
}

// newBroker returns the Redis change feed when REDIS_URL is set, so
// several instances share events, and an in-process feed otherwise.
func newBroker(ctx context.Context, cfg *config.Config, zl *zap.Logger) events.Broker {
	if cfg.RedisURL == "" {
		zl.Info("using in-process change feed")
		return events.NewMemoryBroker(zl)
	}
	rdb, err := events.Connect(ctx, cfg.RedisURL)
	if err != nil {
		zl.Fatal("redis connection failed", zap.Error(err))
	}
	zl.Info("using redis change feed")
	return events.NewRedisBroker(rdb, zl)
}
