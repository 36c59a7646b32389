package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"katalog/internal/handlers"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
	"katalog/pkg/filestore"
	"katalog/pkg/rabbitmq"
)

func main() {
	app, mqClient, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	if mqClient != nil {
		defer mqClient.Close() // Ensure the connection is closed on exit
	}

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// NewApp assembles the Fiber app from the Viper configuration: database,
// file store, optional RabbitMQ events client, repository, service and
// handlers. The returned RabbitMQ client is nil when event publishing is
// disabled; the caller owns closing it.
func NewApp() (*fiber.App, *rabbitmq.Client, error) {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "katalog.db")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE", 5<<20) // 5 MiB per image
	viper.SetDefault("RABBITMQ_URL", "")       // empty disables event publishing
	viper.AutomaticEnv()                       // Load environment variables

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_DRIVER"), viper.GetString("DATABASE_DSN"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// --- File store ---
	uploadDir := viper.GetString("UPLOAD_DIR")
	files, err := filestore.NewStore(uploadDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	// --- Optional RabbitMQ events client ---
	var mqClient *rabbitmq.Client
	var events services.EventPublisher
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		events = mqClient
	}

	// --- Repositories / services / handlers ---
	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, files, events)
	maxUploadSize := viper.GetInt64("MAX_UPLOAD_SIZE")
	productHandler := handlers.NewProductHandler(productService, maxUploadSize)

	// --- Fiber app ---
	// The body limit leaves headroom above the image cap for the other
	// form fields, so oversized uploads are rejected with 413 by the
	// handler instead of a connection-level error.
	app := fiber.New(fiber.Config{
		BodyLimit: int(maxUploadSize) + 1<<20,
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	app.Use(cors.New())

	// Uploaded images are served back under the public /uploads prefix.
	app.Static("/uploads", uploadDir)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, mqClient, nil
}

// openDatabase opens a GORM connection for the configured driver.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
