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

type AssignmentHandler struct {
	*BaseHandler
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(base *BaseHandler, assignmentService services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       base,
		assignmentService: assignmentService,
	}
}

func (h *AssignmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	assignments := rg.Group("/assignments")
	assignments.Use(middleware.AuthMiddleware())
	{
		assignments.GET("/:id", h.Get)
		assignments.POST("/:id/cancel", h.Cancel)
		// The service checks completion rights: the owning volunteer, the
		// requesting authority, or an admin.
		assignments.POST("/:id/complete", h.Complete)
	}

	volunteer := rg.Group("/assignments")
	volunteer.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleVolunteer))
	{
		volunteer.GET("", h.ListMine)
		volunteer.POST("/:id/accept", h.Accept)
		volunteer.POST("/:id/decline", h.Decline)
	}
}

func (h *AssignmentHandler) Get(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Param("id"), userID, h.GetUserRole(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var criteria repositories.AssignmentFilter
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	assignments, total, err := h.assignmentService.ListForVolunteer(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"total":       total,
	})
}

func (h *AssignmentHandler) Accept(c *gin.Context) {
	h.transition(c, func(id, userID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
		return h.assignmentService.Accept(id, userID, req, meta)
	})
}

func (h *AssignmentHandler) Decline(c *gin.Context) {
	h.transition(c, func(id, userID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
		return h.assignmentService.Decline(id, userID, req, meta)
	})
}

func (h *AssignmentHandler) Complete(c *gin.Context) {
	h.transition(c, func(id, userID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
		return h.assignmentService.Complete(id, userID, h.GetUserRole(c), req, meta)
	})
}

func (h *AssignmentHandler) Cancel(c *gin.Context) {
	h.transition(c, func(id, userID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
		return h.assignmentService.Cancel(id, userID, h.GetUserRole(c), req, meta)
	})
}

// transition factors the shared bind-validate-respond cycle of the four
// lifecycle endpoints.
func (h *AssignmentHandler) transition(
	c *gin.Context,
	apply func(id, userID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error),
) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	req := &dto.AssignmentActionRequest{}
	if c.Request.ContentLength > 0 {
		if !h.BindAndValidateJSON(c, req) {
			return
		}
	}

	assignment, err := apply(c.Param("id"), userID, req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
