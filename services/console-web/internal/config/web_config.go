package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/admVeloHub/Console-v2-gcp/pkg/config"
)

type WebConfig struct {
	config.GlobalConfig
	// StaticDir holds the SPA build (index.html and assets).
	StaticDir     string
	ApiGatewayURL string
	// JWTSecretKey validates the operator tokens the editor API requires.
	JWTSecretKey string
	// UploadAPIURL is the base the signed-URL protocol is spoken against.
	UploadAPIURL string
	// PublicImageBase builds image URLs only when the issuer does not
	// return a publicUrl.
	PublicImageBase string
	Environment     string
	// RedisAddr selects the Redis image store; empty keeps images in memory.
	RedisAddr       string
	RedisPassword   string
	TempImageQuota  int
	RateLimitPerSec float64
	RateLimitBurst  int
}

func LoadWebConfig() *WebConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	gateway := strings.TrimRight(config.GetEnv("API_GATEWAY_URL"), "/")
	return &WebConfig{
		GlobalConfig:    *config.LoadGlobalConfig(),
		StaticDir:       config.GetEnvOrDefault("STATIC_DIR", "./build"),
		ApiGatewayURL:   gateway,
		JWTSecretKey:    config.GetEnv("JWT_SECRET_KEY"),
		UploadAPIURL:    config.GetEnvOrDefault("UPLOAD_API_URL", gateway+"/v1"),
		PublicImageBase: config.GetEnvOrDefault("PUBLIC_IMAGE_BASE", ""),
		Environment:     config.GetEnvOrDefault("NODE_ENV", "production"),
		RedisAddr:       config.GetEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:   config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		TempImageQuota:  config.GetEnvInt("TEMP_IMAGE_QUOTA", 50),
		RateLimitPerSec: float64(config.GetEnvInt("RATE_LIMIT_PER_SEC", 5)),
		RateLimitBurst:  config.GetEnvInt("RATE_LIMIT_BURST", 20),
	}
}
