package handlers

import (
	"net/http"

	"crisislink_backend/internal/middleware"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	*BaseHandler
	activityService services.ActivityService
}

func NewActivityHandler(base *BaseHandler, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		BaseHandler:     base,
		activityService: activityService,
	}
}

func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	activity := rg.Group("/activity")
	activity.Use(middleware.AuthMiddleware())
	{
		activity.GET("/feed", h.GetFeed)
		activity.GET("/notifications", h.GetNotifications)
	}
}

func (h *ActivityHandler) GetFeed(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var criteria repositories.ActivityCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	entries, total, err := h.activityService.GetFeed(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
	})
}

// GetNotifications is the polling endpoint: notification rows from the
// caller's feed, newest first.
func (h *ActivityHandler) GetNotifications(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var criteria repositories.ActivityCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	entries, total, err := h.activityService.GetNotifications(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": entries,
		"total":         total,
	})
}
