package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/admVeloHub/Console-v2-gcp/pkg/config"
)

type UploadConfig struct {
	config.GlobalConfig
	AzureStorageConnectionString string
	BlobContainerName            string
	// SignedURLTTL is how long an issued upload URL stays valid.
	SignedURLTTL time.Duration
}

func LoadUploadConfig() *UploadConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	return &UploadConfig{
		GlobalConfig:                 *config.LoadGlobalConfig(),
		AzureStorageConnectionString: config.GetEnv("AZURE_STORAGE_CONNECTION_STRING"),
		BlobContainerName:            config.GetEnv("BLOB_CONTAINER_NAME"),
		SignedURLTTL:                 time.Duration(config.GetEnvInt("UPLOAD_URL_TTL_SECONDS", 900)) * time.Second,
	}
}
