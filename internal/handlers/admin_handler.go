package handlers

import (
	"net/http"

	"crisislink_backend/internal/middleware"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/services"
	"crisislink_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	adminService     services.AdminService
	matchingService  services.MatchingService
	activityService  services.ActivityService
	emergencyService services.EmergencyService
	userHandler      *UserHandler
}

func NewAdminHandler(
	base *BaseHandler,
	adminService services.AdminService,
	matchingService services.MatchingService,
	activityService services.ActivityService,
	emergencyService services.EmergencyService,
	userHandler *UserHandler,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:      base,
		adminService:     adminService,
		matchingService:  matchingService,
		activityService:  activityService,
		emergencyService: emergencyService,
		userHandler:      userHandler,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/overview", h.GetOverview)
		admin.GET("/matching/stats", h.GetMatchingStats)
		admin.GET("/notifications/timing", h.GetNotificationTiming)
		admin.POST("/escalations/run", h.RunEscalationSweep)

		admin.GET("/verifications", h.ListPendingVerifications)
		admin.POST("/verifications/:id", h.VerifySkill)

		admin.GET("/users", h.userHandler.ListUsers)
		admin.POST("/users/:id/block", h.BlockUser)
		admin.POST("/users/:id/unblock", h.UnblockUser)

		admin.GET("/activity/:entityType/:entityId", h.GetEntityHistory)
	}
}

// -------------------------------
// Dashboards
// -------------------------------

func (h *AdminHandler) GetOverview(c *gin.Context) {
	overview, err := h.adminService.GetPlatformOverview()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AdminHandler) GetMatchingStats(c *gin.Context) {
	stats, err := h.matchingService.GetMatchingStats()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetNotificationTiming(c *gin.Context) {
	since, _, err := ParseQueryDateRange(c, 7)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	stats, err := h.activityService.GetNotificationTimingReport(since)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RunEscalationSweep triggers the timeout sweep outside the worker schedule.
func (h *AdminHandler) RunEscalationSweep(c *gin.Context) {
	escalated, err := h.emergencyService.ProcessTimeouts()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"escalated_count": len(escalated),
		"escalated_ids":   escalated,
	})
}

// -------------------------------
// Skill verification
// -------------------------------

func (h *AdminHandler) ListPendingVerifications(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	pending, total, err := h.adminService.ListPendingVerifications(page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verifications": pending,
		"total":         total,
	})
}

func (h *AdminHandler) VerifySkill(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.VerifySkillRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	claim, err := h.adminService.VerifySkill(c.Param("id"), adminID, &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

// -------------------------------
// User moderation
// -------------------------------

func (h *AdminHandler) BlockUser(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BlockUserRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.adminService.BlockUser(c.Param("id"), adminID, &req, middleware.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User blocked"})
}

func (h *AdminHandler) UnblockUser(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.adminService.UnblockUser(c.Param("id"), adminID, middleware.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User unblocked"})
}

// -------------------------------
// Audit
// -------------------------------

func (h *AdminHandler) GetEntityHistory(c *gin.Context) {
	history, err := h.activityService.GetEntityHistory(c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
