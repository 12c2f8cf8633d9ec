package main

import (
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/adapter"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/config"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/handler"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/repository"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/service"
)

func main() {
	conf := config.LoadContentConfig()
	log := logger.New(conf.LogLevel).With("service", "content-service")

	db, err := gorm.Open(postgres.Open(conf.PostgreConnectionString), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect db: " + err.Error())
	}
	// auto migration
	if err := db.AutoMigrate(&domain.Article{}); err != nil {
		log.Fatal("failed to migrate db: " + err.Error())
	}

	uploads := imageupload.NewClient(conf.UploadServiceURL, log)
	repo := repository.NewArticleRepository(db)
	svc := service.NewArticleService(repo, adapter.NewImageAdapter(uploads, log), markdown.NewConverter(log), log)
	h := handler.NewArticleHandler(svc, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	h.Register(r)

	log.Info("content-service listening on :" + conf.ServerPort)
	if err := r.Run(":" + conf.ServerPort); err != nil {
		log.Fatal("failed to run server: " + err.Error())
	}
}
