package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/adapter"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/config"
	editor "github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/handler/editor"
	page "github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/handler/page"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/session"
)

const sessionIdleTimeout = 2 * time.Hour

func main() {
	cfg := config.LoadWebConfig()
	log := logger.New(cfg.LogLevel).With("service", "console-web")

	var store *imagestore.Store
	var tokens jwt.TokenManager
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			MaxRetries: 3,
			PoolSize:   10,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis: " + err.Error())
		}
		cancel()
		store = imagestore.NewRedisStore(rdb, log, imagestore.WithQuota(cfg.TempImageQuota))
		tokens = jwt.NewTokenManager(cfg.JWTSecretKey, rdb)
		log.Info("temporary images stored in redis")
	} else {
		store = imagestore.NewMemoryStore(log, imagestore.WithQuota(cfg.TempImageQuota))
		tokens = jwt.NewTokenManagerWithoutRedis(cfg.JWTSecretKey)
		log.Warn("REDIS_ADDR not set, temporary images kept in memory")
	}

	conv := markdown.NewConverter(log)
	uploads := imageupload.NewClient(cfg.UploadAPIURL, log, imageupload.WithPublicBase(cfg.PublicImageBase))
	processor := imageupload.NewProcessor(store, uploads, log)
	registry := session.NewRegistry(conv, store, log)
	go func() {
		for range time.Tick(10 * time.Minute) {
			registry.CloseIdle(sessionIdleTimeout)
		}
	}()

	pageH := page.NewPageHandler(cfg)
	editorH := editor.NewEditorHandler(registry, conv, store, processor, adapter.NewArticleAdapter(cfg.ApiGatewayURL, log), log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Health check endpoints
	r.GET("/health", pageH.Health)
	r.GET("/monitor.html", pageH.Monitor)

	editorH.Register(r.Group("/api"),
		middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		middleware.CookieAuthMiddleware(tokens))
	r.NoRoute(pageH.SPA)

	log.Info("start console web at port " + cfg.ServerPort)
	if err := r.Run("0.0.0.0:" + cfg.ServerPort); err != nil {
		log.Fatal("failed to run server: " + err.Error())
	}
}
