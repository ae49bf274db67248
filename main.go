package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/handlers"
	"github.com/papershelf/papershelf/backend/go-services/internal/config"
	"github.com/papershelf/papershelf/backend/go-services/internal/database"
	"github.com/papershelf/papershelf/backend/go-services/internal/oidc"
	paperhandler "github.com/papershelf/papershelf/backend/go-services/internal/paper/handler"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper/repository"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper/service"
	"github.com/papershelf/papershelf/backend/go-services/internal/sessions"
	"github.com/papershelf/papershelf/backend/go-services/internal/storage"
	"github.com/papershelf/papershelf/backend/go-services/internal/tokens"
	"github.com/papershelf/papershelf/backend/go-services/internal/users"
	"github.com/papershelf/papershelf/backend/go-services/pkg/logger"
	"github.com/papershelf/papershelf/backend/go-services/pkg/metrics"
	"github.com/papershelf/papershelf/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

const mongoAttempts = 5

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	if cfg.IsProduction() {
		logger.UseJSON(true)
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: mongo=%v redis=%v keycloak=%v storage=%s",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Keycloak.URL != "", cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(middleware.CORS(), gin.Logger(), gin.Recovery(), middleware.RequestMetrics())
	r.MaxMultipartMemory = 8 << 20

	// Redis: refresh sessions and the access-token blacklist
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			sessions.SetBlacklistClient(rdb)
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// MongoDB: papers, users and (without Redis) sessions. Falls back to memory.
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, using in-memory stores: %v", err)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		}
	}

	var (
		paperStore repository.Store     = repository.NewMemoryRepo()
		userRepo   users.UserRepository = users.NewMemoryUserRepository()
		sessRepo   sessions.Repository  = sessions.NewMemoryRepository()
	)
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		if paperStore, err = repository.NewMongoRepo(ctx, db.Collection("papers")); err != nil {
			logger.Fatalf("papers collection: %v", err)
		}
		if userRepo, err = users.NewMongoUserRepository(ctx, db.Collection("users")); err != nil {
			logger.Fatalf("users collection: %v", err)
		}
		if sessRepo, err = sessions.NewMongoRepository(ctx, db.Collection("sessions")); err != nil {
			logger.Fatalf("sessions collection: %v", err)
		}
	}
	if rdb != nil {
		sessRepo = sessions.NewRedisRepository(rdb, "")
	}

	files, err := buildStorage(ctx, cfg)
	if err != nil {
		logger.Fatalf("file storage: %v", err)
	}

	userSvc := users.NewService(userRepo)
	sessionsSvc := sessions.NewService(sessRepo, cfg.JWT.RefreshTokenTTL)

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = ephemeralSecret()
		logger.Warnf("using an ephemeral JWT secret; issued tokens will not survive a restart")
	}
	issuer, err := tokens.NewIssuer(cfg.JWT)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}
	verifier := buildVerifier(ctx, cfg, issuer)
	auth := middleware.AuthMiddleware(verifier, userSvc)

	api := r.Group("/api")
	papers := service.NewPaperService(paperStore)
	notes := service.NewNoteService(paperStore, userSvc)
	paperhandler.New(papers, notes, files, cfg.Upload).RegisterRoutes(api, auth)
	handlers.NewAuthHandler(userSvc, sessionsSvc, issuer).Register(api, auth)
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		rctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps := map[string]bool{"storage": files.Ping(rctx) == nil}
		if mongoClient != nil {
			deps["mongo"] = mongoClient.Ping(rctx, nil) == nil
		}
		if rdb != nil {
			deps["redis"] = rdb.Ping(rctx).Err() == nil
		}
		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok {
				status, code = "not_ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting papershelf on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func buildStorage(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return storage.NewMinIOStorage(ctx, cfg.Storage.MinIO)
	case "", "disk":
		return storage.NewDiskStorage(cfg.Storage.Dir)
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
}

// buildVerifier accepts local tokens first, then OIDC tokens when configured.
func buildVerifier(ctx context.Context, cfg *config.Config, issuer *tokens.Issuer) middleware.Verifier {
	chain := middleware.Chain{issuer}
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Keycloak)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			chain = append(chain, ver)
			logger.Infof("OIDC verifier enabled for %s", ver.Issuer())
		}
	}
	if cfg.Keycloak.AllowInsecure {
		logger.Warn("enabling insecure token verifier (integration mode)")
		chain = append(chain, oidc.NewInsecureVerifier())
	}
	return chain
}

func ephemeralSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.Fatalf("generate secret: %v", err)
	}
	return hex.EncodeToString(b)
}
