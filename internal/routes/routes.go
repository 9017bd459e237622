package routes

import (
	"net/http"

	"crisislink_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the versioned API and the health endpoint.
func RegisterRoutes(router *gin.Engine, appHandlers *handlers.AppHandlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)
		appHandlers.VolunteerHandler.RegisterRoutes(api)
		appHandlers.EmergencyHandler.RegisterRoutes(api)
		appHandlers.AssignmentHandler.RegisterRoutes(api)
		appHandlers.ActivityHandler.RegisterRoutes(api)
		appHandlers.AdminHandler.RegisterRoutes(api)
	}
}
