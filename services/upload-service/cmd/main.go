package main

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/config"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/handler"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/repository"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/service"
)

func main() {
	conf := config.LoadUploadConfig()
	log := logger.New(conf.LogLevel).With("service", "upload-service")

	client, err := azblob.NewClientFromConnectionString(conf.AzureStorageConnectionString, nil)
	if err != nil {
		log.Fatal("failed to create blob client: " + err.Error())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repository.EnsureContainer(ctx, client, conf.BlobContainerName, log); err != nil {
		log.Fatal("failed to create container: " + err.Error())
	}

	uploadRepo := repository.NewBlobRepository(client, conf.BlobContainerName, log)
	uploadService := service.NewUploadService(uploadRepo, conf.SignedURLTTL, log)
	uploadHandler := handler.NewUploadHandler(uploadService, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.POST("/uploads/generate-upload-url", uploadHandler.GenerateUploadURLHandler)
	r.DELETE("/uploads/image", uploadHandler.DeleteImageHandler)

	log.Info("upload-service listening on :" + conf.ServerPort)
	if err := r.Run(":" + conf.ServerPort); err != nil {
		log.Fatal("failed to run server: " + err.Error())
	}
}
