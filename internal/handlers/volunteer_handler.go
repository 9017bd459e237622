package handlers

import (
	"net/http"

	"crisislink_backend/internal/middleware"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/services"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxDocumentSize caps skill verification uploads at 10 MiB.
const maxDocumentSize = 10 << 20

type VolunteerHandler struct {
	*BaseHandler
	volunteerService services.VolunteerService
	matchingService  services.MatchingService
}

func NewVolunteerHandler(base *BaseHandler, volunteerService services.VolunteerService, matchingService services.MatchingService) *VolunteerHandler {
	return &VolunteerHandler{
		BaseHandler:      base,
		volunteerService: volunteerService,
		matchingService:  matchingService,
	}
}

func (h *VolunteerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	skills := rg.Group("/skills")
	skills.Use(middleware.AuthMiddleware())
	{
		skills.GET("", h.ListSkillCatalog)
	}

	volunteers := rg.Group("/volunteers")
	volunteers.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleVolunteer))
	{
		volunteers.GET("/me", h.GetProfile)
		volunteers.PUT("/me", h.UpsertProfile)
		volunteers.PUT("/me/availability", h.SetAvailability)

		volunteers.GET("/me/skills", h.ListSkills)
		volunteers.POST("/me/skills", h.ClaimSkill)
		volunteers.POST("/me/skills/:id/documents", h.UploadSkillDocument)

		volunteers.GET("/me/emergencies", h.FindNearbyEmergencies)
	}
}

// -------------------------------
// Profile
// -------------------------------

func (h *VolunteerHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	profile, err := h.volunteerService.GetProfile(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *VolunteerHandler) UpsertProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertVolunteerProfileRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	profile, err := h.volunteerService.UpsertProfile(userID, &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *VolunteerHandler) SetAvailability(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SetAvailabilityRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	profile, err := h.volunteerService.SetAvailability(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// -------------------------------
// Skills
// -------------------------------

func (h *VolunteerHandler) ListSkillCatalog(c *gin.Context) {
	skills, err := h.volunteerService.ListCatalog(c.Query("category"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

func (h *VolunteerHandler) ListSkills(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	skills, err := h.volunteerService.ListSkills(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

func (h *VolunteerHandler) ClaimSkill(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ClaimSkillRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	claim, err := h.volunteerService.ClaimSkill(userID, &req, middleware.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

func (h *VolunteerHandler) UploadSkillDocument(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing document file"))
		return
	}
	if fileHeader.Size > maxDocumentSize {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Document exceeds the 10 MiB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	claim, err := h.volunteerService.UploadSkillDocument(
		c.Request.Context(),
		userID,
		c.Param("id"),
		fileHeader.Filename,
		file,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

// -------------------------------
// Discovery
// -------------------------------

func (h *VolunteerHandler) FindNearbyEmergencies(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	profile, err := h.volunteerService.GetProfile(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	radius := ParseQueryFloat(c, "radius_km", 0)
	matches, err := h.matchingService.FindEmergenciesForVolunteer(profile.ID, radius)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emergencies": matches})
}
