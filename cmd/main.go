package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/inklutec-dev/InkluDocs/cmd/controllers"
	"github.com/inklutec-dev/InkluDocs/internal/config"
	"github.com/inklutec-dev/InkluDocs/internal/repo"
	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

const defaultConfigPath = "config.json"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := config.EnsureSecretKey(&cfg); err != nil {
		log.Fatalf("ensure secret key: %v", err)
	}

	db, err := repo.Connect(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}

	if err := repo.Migrate(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	logService, err := services.NewLogService(db)
	if err != nil {
		log.Fatalf("create log service: %v", err)
	}

	tokenService, err := services.NewTokenService(cfg.SecretKey)
	if err != nil {
		log.Fatalf("create token service: %v", err)
	}

	storeService, err := services.NewStoreService(cfg.UploadDir(), cfg.ResultsDir())
	if err != nil {
		log.Fatalf("create store service: %v", err)
	}

	userService, err := services.NewUserService(db, storeService)
	if err != nil {
		log.Fatalf("create user service: %v", err)
	}

	pdfService, err := services.NewPdfService()
	if err != nil {
		log.Fatalf("create pdf service: %v", err)
	}

	ollamaService, err := services.NewOllamaService(cfg.OllamaURL, cfg.OllamaModel, logService, nil)
	if err != nil {
		log.Fatalf("create ollama service: %v", err)
	}

	projectService, err := services.NewProjectService(db, storeService, pdfService, logService)
	if err != nil {
		log.Fatalf("create project service: %v", err)
	}

	generateService, err := services.NewGenerateService(db, ollamaService, logService)
	if err != nil {
		log.Fatalf("create generate service: %v", err)
	}

	exportService, err := services.NewExportService(db, pdfService, storeService, logService)
	if err != nil {
		log.Fatalf("create export service: %v", err)
	}

	reportService, err := services.NewReportService(db)
	if err != nil {
		log.Fatalf("create report service: %v", err)
	}

	bundleService, err := services.NewBundleService(db)
	if err != nil {
		log.Fatalf("create bundle service: %v", err)
	}

	cleanupService, err := services.NewCleanupService(db, cfg.ResultsDir(), logService)
	if err != nil {
		log.Fatalf("create cleanup service: %v", err)
	}

	limiter := services.NewLoginLimiter()

	authController, err := controllers.NewAuthController(userService, tokenService, limiter, cfg.BaseURL)
	if err != nil {
		log.Fatalf("create auth controller: %v", err)
	}

	adminController, err := controllers.NewAdminController(userService)
	if err != nil {
		log.Fatalf("create admin controller: %v", err)
	}

	logsController, err := controllers.NewLogsController(logService)
	if err != nil {
		log.Fatalf("create logs controller: %v", err)
	}

	projectsController, err := controllers.NewProjectsController(projectService, generateService, exportService, reportService, bundleService)
	if err != nil {
		log.Fatalf("create projects controller: %v", err)
	}

	imagesController, err := controllers.NewImagesController(projectService)
	if err != nil {
		log.Fatalf("create images controller: %v", err)
	}

	pagesController, err := controllers.NewPagesController(cfg.FrontendDir, tokenService)
	if err != nil {
		log.Fatalf("create pages controller: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	auth := controllers.AuthRequired(tokenService)
	admin := controllers.AdminRequired(tokenService)

	if err := controllers.RegisterHealthRoutes(router); err != nil {
		log.Fatalf("register health routes: %v", err)
	}
	if err := authController.RegisterRoutes(router, auth); err != nil {
		log.Fatalf("register auth routes: %v", err)
	}
	if err := adminController.RegisterRoutes(router, admin); err != nil {
		log.Fatalf("register admin routes: %v", err)
	}
	if err := logsController.RegisterRoutes(router, admin); err != nil {
		log.Fatalf("register logs routes: %v", err)
	}
	if err := projectsController.RegisterRoutes(router, auth); err != nil {
		log.Fatalf("register projects routes: %v", err)
	}
	if err := imagesController.RegisterRoutes(router, auth); err != nil {
		log.Fatalf("register images routes: %v", err)
	}
	if err := pagesController.RegisterRoutes(router); err != nil {
		log.Fatalf("register pages routes: %v", err)
	}

	if err := startCron(cleanupService); err != nil {
		log.Fatalf("start cron: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := router.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

type housekeeper interface {
	Run(ctx context.Context) error
}

func startCron(service housekeeper) error {
	if service == nil {
		return errors.New("cleanup service is nil")
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc("@every 1h", func() {
		if err := service.Run(context.Background()); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}); err != nil {
		return err
	}

	scheduler.Start()
	return nil
}
