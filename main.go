package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"autoecole_go/config"
	"autoecole_go/database"
	"autoecole_go/database/seeders"
	"autoecole_go/middleware"
	"autoecole_go/routes"
	"autoecole_go/services/ops"
	"autoecole_go/services/video"
	"autoecole_go/storage"
	"autoecole_go/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	db, rc := database.Connect(cfg)
	defer database.Close(db)

	if !cfg.SkipMigrate {
		database.AutoMigrate(db)
	}
	if cfg.SeedSample {
		seeders.SeedSampleData(db)
	}

	st := store.New(db)
	audit := middleware.NewActivityLogger(db, rc)
	videoClient := video.NewClient(cfg)
	healthService := ops.NewHealthService(db, rc, cfg)

	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage service:", err)
	}

	// Start log maintenance scheduler
	logArchiveService := ops.NewLogArchiveService(db, audit, cfg)
	logArchiveService.Start()
	defer logArchiveService.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.MaxFileSize),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(middleware.LoggerMiddleware())

	routes.SetupRoutes(app, routes.Deps{
		DB:      db,
		Cfg:     cfg,
		Redis:   rc,
		Store:   st,
		Storage: storageService,
		Video:   videoClient,
		Audit:   audit,
		Health:  healthService,
	})

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	log.Printf("Server starting on port %s (env: %s)", cfg.Port, cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.AppEnv == "development" || cfg.LogFile == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Printf("Warning: Could not open log file, using stdout: %v", err)
		logrus.SetOutput(os.Stdout)
		return
	}
	logrus.SetOutput(file)
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
