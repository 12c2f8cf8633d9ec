package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/config"
	"github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/router"
)

func main() {
	conf := config.LoadGatewayConfig()
	log := logger.New(conf.LogLevel).With("service", "api-gateway")

	var tokens jwt.TokenManager
	revocation := conf.RedisAddr != ""
	if revocation {
		rdb := redis.NewClient(&redis.Options{Addr: conf.RedisAddr, Password: conf.RedisPassword})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis: " + err.Error())
		}
		cancel()
		tokens = jwt.NewTokenManager(conf.JWTSecretKey, rdb)
	} else {
		log.Warn("REDIS_ADDR not set, token revocation disabled")
		tokens = jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	}

	r := router.New(conf, tokens, revocation, log)

	log.Info("API Gateway running on :" + conf.ServerPort)
	if err := r.Run(":" + conf.ServerPort); err != nil {
		log.Fatal("failed to run server: " + err.Error())
	}
}
