package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/middleware"
	"github.com/lolo262652/tasknot/internal/services"
)

// ProfileHandler serves the profile directory and the self-update route.
type ProfileHandler struct {
	authService *services.AuthService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(authService *services.AuthService) *ProfileHandler {
	return &ProfileHandler{
		authService: authService,
	}
}

// ListProfiles returns every profile ordered by full name.
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.authService.ListProfiles()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch profiles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// UpdateMe updates the session user's full name, the one editable field.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		FullName string `json:"full_name"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, err := h.authService.UpdateFullName(userID, req.FullName)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
