package main

import (
	"fmt"
	"log"
	"net/http"

	"headtohead/backend/internal/auth"
	"headtohead/backend/internal/config"
	"headtohead/backend/internal/database"
	"headtohead/backend/internal/friendship"
	"headtohead/backend/internal/handler"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "headtohead/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Head-to-Head API
// @version         1.0
// @description     This is the API for the head-to-head game platform.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	friendshipService := friendship.NewService(
		friendship.NewGormStore(database.DB),
		friendship.NewGormAccounts(database.DB),
	)
	friendshipHandler := handler.NewFriendshipHandler(friendshipService)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", handler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.GET("/:id", handler.GetUserByID)
		}

		// Friendship routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", friendshipHandler.GetFriends)
			friendRoutes.DELETE("/:userID", friendshipHandler.RemoveFriend)
			friendRoutes.GET("/requests", friendshipHandler.GetPendingRequests)
			friendRoutes.POST("/requests", friendshipHandler.SendRequest)
			friendRoutes.POST("/requests/:id/accept", friendshipHandler.AcceptRequest)
			friendRoutes.POST("/requests/:id/reject", friendshipHandler.RejectRequest)
			friendRoutes.POST("/requests/:id/block", friendshipHandler.BlockRequest)
		}
	}

	fmt.Println("Server is running on " + config.AppConfig.ServerAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
