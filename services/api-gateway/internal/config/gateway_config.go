package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/admVeloHub/Console-v2-gcp/pkg/config"
)

// GatewayConfig extends GlobalConfig with the upstream service locations.
type GatewayConfig struct {
	config.GlobalConfig
	ContentServiceURL string
	UploadServiceURL  string
	JWTSecretKey      string
	// RedisAddr enables token revocation; empty disables logout.
	RedisAddr     string
	RedisPassword string
}

func LoadGatewayConfig() *GatewayConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	return &GatewayConfig{
		GlobalConfig:      *config.LoadGlobalConfig(),
		ContentServiceURL: config.GetEnv("CONTENT_SERVICE_URL"),
		UploadServiceURL:  config.GetEnv("UPLOAD_SERVICE_URL"),
		JWTSecretKey:      config.GetEnv("JWT_SECRET_KEY"),
		RedisAddr:         config.GetEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:     config.GetEnvOrDefault("REDIS_PASSWORD", ""),
	}
}
