package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ytakahashi/focus-session-server/internal/analytics"
	"github.com/ytakahashi/focus-session-server/internal/engine"
	"github.com/ytakahashi/focus-session-server/internal/handlers"
	"github.com/ytakahashi/focus-session-server/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		log.Fatal("GOOGLE_CLOUD_PROJECT environment variable is required")
	}

	bufferPath := os.Getenv("BUFFER_DB_PATH")
	if bufferPath == "" {
		bufferPath = "./data/buffer.db"
	}

	firestoreService, err := services.NewFirestoreService(projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore service: %v", err)
	}
	defer firestoreService.Close()

	buffer, err := services.NewSessionBuffer(bufferPath)
	if err != nil {
		log.Fatalf("Failed to open session buffer: %v", err)
	}
	defer buffer.Close()

	var notifier services.Notifier = services.NopNotifier{}
	if token := os.Getenv("LINE_CHANNEL_TOKEN"); token != "" {
		lineNotifier, err := services.NewLineNotifier(token, os.Getenv("LINE_NOTIFY_TO"))
		if err != nil {
			log.Printf("Notifications disabled: %v", err)
		} else {
			notifier = lineNotifier
		}
	}

	reconciler := services.NewReconciler(buffer, firestoreService)
	sessionEngine := engine.New(buffer, notifier, reconciler)
	aggregator := analytics.NewAggregator(firestoreService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionEngine.Run(ctx)

	apiHandler := handlers.NewAPIHandler(sessionEngine, aggregator)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	apiHandler.Register(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
