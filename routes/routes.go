package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"loom/handlers"
	"loom/middleware"
)

func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:3000", "http://localhost:19006"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RateLimitMiddleware())

	// Public routes (no auth required)
	router.POST("/api/signup", handlers.Signup)
	router.POST("/api/login", handlers.Login)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	// Google OAuth routes
	router.GET("/api/google/auth-url", handlers.GetGoogleAuthURL)
	router.GET("/api/google/callback", handlers.GoogleOAuthCallback)
	router.POST("/api/google-auth", handlers.GoogleAuthWithCredential)

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	// Profiles
	protected.GET("/me", handlers.GetMyProfile)
	protected.PUT("/me", handlers.UpdateMyProfile)
	protected.GET("/user/:id", handlers.GetProfile)
	protected.GET("/profile/:username", handlers.GetProfileByUsername)

	// Posts and threads
	protected.POST("/post", handlers.CreatePost)
	protected.GET("/post/:id", handlers.GetPost)
	protected.DELETE("/post/:id", handlers.DeletePost)
	protected.GET("/post/:id/thread", handlers.GetThread)
	protected.GET("/feed", handlers.GetFeed)
	protected.GET("/user/:id/posts", handlers.GetUserPosts)

	// Comments
	protected.POST("/comment", handlers.CreateComment)
	protected.DELETE("/comment/:id", handlers.DeleteComment)
	protected.GET("/comment/:id/replies", handlers.GetReplies)

	// Toggles
	protected.POST("/post/:id/like", handlers.ToggleLikePost)
	protected.POST("/comment/:id/like", handlers.ToggleLikeComment)
	protected.POST("/post/:id/repost", handlers.ToggleRepost)
	protected.POST("/user/:id/follow", handlers.ToggleFollow)
	protected.GET("/user/:id/followers", handlers.GetFollowers)

	// Notifications
	protected.GET("/notifications", handlers.GetNotifications)
	protected.POST("/notifications/read", handlers.MarkNotificationsRead)

	// Messages
	protected.POST("/message", handlers.SendMessage)
	protected.GET("/messages/:userId", handlers.GetMessages)
	protected.GET("/conversations", handlers.GetConversations)
	protected.POST("/messages/:userId/read", handlers.MarkMessagesRead)

	// Image upload
	protected.POST("/upload-image", handlers.UploadImage)

	// Push subscriptions
	protected.POST("/subscribe", handlers.SubscribePush)

	// JSON 404 for undefined API routes
	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
