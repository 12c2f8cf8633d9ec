package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/admVeloHub/Console-v2-gcp/pkg/config"
)

type ContentConfig struct {
	config.GlobalConfig
	PostgreConnectionString string
	// UploadServiceURL is where article images are deleted from.
	UploadServiceURL string
}

func LoadContentConfig() *ContentConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	return &ContentConfig{
		GlobalConfig:            *config.LoadGlobalConfig(),
		PostgreConnectionString: config.GetEnv("POSTGRE_CONNECTION_STRING"),
		UploadServiceURL:        config.GetEnv("UPLOAD_SERVICE_URL"),
	}
}
