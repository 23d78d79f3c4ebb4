package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/middleware"
	"vaultshare/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetNotifications lists the emails sent to the caller, newest first.
// @Summary		List notifications
// @Tags		Notifications
// @Security	BearerAuth
// @Param		limit	query	int	false	"max items (default 20, max 100)"
// @Success		200	{object}	[]EmailNotification
// @Router		/notifications [get]
func (h *Handler) GetNotifications(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	list, err := h.service.ListForUser(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get notifications")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notifications": list})
}
