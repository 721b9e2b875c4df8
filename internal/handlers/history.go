package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lolo262652/tasknot/internal/constants"
	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/middleware"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/services"
)

// HistoryHandler serves the append-only history feed.
type HistoryHandler struct {
	historyService *services.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// ListHistory returns the most recent denormalized records.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.HistoryFeedLimit)))

	entries, err := h.historyService.ListEntries(limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// AppendHistory appends one record. There is no update or delete route.
func (h *HistoryHandler) AppendHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AppendHistoryRequest struct {
		TaskID         string  `json:"task_id" binding:"required"`
		UserID         string  `json:"user_id"`
		Action         string  `json:"action" binding:"required"`
		PreviousStatus *string `json:"previous_status"`
		NewStatus      *string `json:"new_status"`
	}

	var req AppendHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Records are attributed to the session user unless the mutation was
	// made on another user's behalf
	if req.UserID == "" {
		req.UserID = userID
	}

	record, err := h.historyService.Append(services.AppendHistoryInput{
		TaskID:         req.TaskID,
		UserID:         req.UserID,
		Action:         models.HistoryAction(req.Action),
		PreviousStatus: toStatus(req.PreviousStatus),
		NewStatus:      toStatus(req.NewStatus),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidHistoryAction) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to append history")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func toStatus(s *string) *models.TaskStatus {
	if s == nil {
		return nil
	}
	status := models.TaskStatus(*s)
	return &status
}
