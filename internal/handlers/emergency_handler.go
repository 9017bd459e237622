package handlers

import (
	"net/http"

	"crisislink_backend/internal/middleware"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services"
	"crisislink_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type EmergencyHandler struct {
	*BaseHandler
	emergencyService  services.EmergencyService
	assignmentService services.AssignmentService
	matchingService   services.MatchingService
	activityService   services.ActivityService
}

func NewEmergencyHandler(
	base *BaseHandler,
	emergencyService services.EmergencyService,
	assignmentService services.AssignmentService,
	matchingService services.MatchingService,
	activityService services.ActivityService,
) *EmergencyHandler {
	return &EmergencyHandler{
		BaseHandler:       base,
		emergencyService:  emergencyService,
		assignmentService: assignmentService,
		matchingService:   matchingService,
		activityService:   activityService,
	}
}

func (h *EmergencyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	emergencies := rg.Group("/emergencies")
	emergencies.Use(middleware.AuthMiddleware())
	{
		emergencies.GET("", h.List)
		emergencies.GET("/:id", h.Get)
		emergencies.GET("/:id/history", h.GetHistory)
	}

	manage := rg.Group("/emergencies")
	manage.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAuthority, models.UserRoleAdmin))
	{
		manage.POST("", h.Create)
		manage.PATCH("/:id", h.Update)
		manage.POST("/:id/cancel", h.Cancel)
		manage.POST("/:id/complete", h.Complete)
		manage.POST("/:id/escalate", h.Escalate)

		manage.GET("/:id/matches", h.FindMatches)
		manage.POST("/:id/assignments", h.AssignVolunteer)
		manage.GET("/:id/assignments", h.ListAssignments)

		manage.GET("/statistics", h.GetStatistics)
	}
}

// -------------------------------
// CRUD
// -------------------------------

func (h *EmergencyHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateEmergencyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	emergency, err := h.emergencyService.Create(userID, &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, emergency)
}

func (h *EmergencyHandler) Get(c *gin.Context) {
	emergency, err := h.emergencyService.GetByID(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, emergency)
}

func (h *EmergencyHandler) List(c *gin.Context) {
	var criteria repositories.EmergencyFilter
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	// Authorities see their own emergencies unless they ask for all
	if h.GetUserRole(c) == models.UserRoleAuthority && c.Query("all") != "true" {
		if userID, ok := h.GetAndAuthorizeUserID(c); ok {
			criteria.AuthorityID = userID
		}
	}

	emergencies, total, err := h.emergencyService.List(criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"emergencies": emergencies,
		"total":       total,
	})
}

func (h *EmergencyHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateEmergencyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	emergency, err := h.emergencyService.Update(c.Param("id"), userID, h.GetUserRole(c), &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, emergency)
}

// -------------------------------
// Lifecycle
// -------------------------------

func (h *EmergencyHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CancelEmergencyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	emergency, err := h.emergencyService.Cancel(c.Param("id"), userID, h.GetUserRole(c), &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, emergency)
}

func (h *EmergencyHandler) Complete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteEmergencyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	emergency, err := h.emergencyService.Complete(c.Param("id"), userID, h.GetUserRole(c), &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, emergency)
}

func (h *EmergencyHandler) Escalate(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	emergency, err := h.emergencyService.Escalate(c.Param("id"), userID, h.GetUserRole(c), middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, emergency)
}

// -------------------------------
// Matching and assignments
// -------------------------------

func (h *EmergencyHandler) FindMatches(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 20)

	matches, err := h.matchingService.FindMatchingVolunteers(c.Param("id"), limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	suggestion, err := h.matchingService.SuggestRadiusExpansion(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matches":           matches,
		"radius_suggestion": suggestion,
	})
}

func (h *EmergencyHandler) AssignVolunteer(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AssignVolunteerRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	assignment, err := h.emergencyService.AssignVolunteer(c.Param("id"), userID, h.GetUserRole(c), &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *EmergencyHandler) ListAssignments(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListForEmergency(c.Param("id"), userID, h.GetUserRole(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// -------------------------------
// History and stats
// -------------------------------

func (h *EmergencyHandler) GetHistory(c *gin.Context) {
	history, err := h.activityService.GetEntityHistory("emergency", c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *EmergencyHandler) GetStatistics(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	stats, err := h.emergencyService.GetStatistics(userID, h.GetUserRole(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
