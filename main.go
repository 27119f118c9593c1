package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"loom/database"
	"loom/handlers"
	"loom/routes"
	"loom/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// Environment is final from here on.
	handlers.InitGoogleOAuth()
	handlers.InitWebPush()

	jwt := os.Getenv("JWT_SECRET")
	mongoURI := os.Getenv("MONGODB_URI")
	if jwt == "" || mongoURI == "" {
		log.Fatal("JWT_SECRET and MONGODB_URI must be set")
	}

	log.Println("Connecting to MongoDB...")

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectDB(); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}
	log.Println("MongoDB connected")

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter()

	wsManager := websocket.NewManager()
	go wsManager.Start()
	handlers.SetWebSocketManager(wsManager)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "Loom backend running",
			"service":     "healthy",
			"connections": wsManager.ConnectedUsers(),
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.WebSocketHandler(wsManager)(c.Writer, c.Request)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	if err := database.DisconnectDB(); err != nil {
		log.Println("MongoDB disconnect error: ", err)
	}

	log.Println("Server stopped")
}
