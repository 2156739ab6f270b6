package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juetgo/outing-management-backend/utils"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 👤 Current user - GET /users/me
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetUint("user_id")

	user, err := h.Service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ===========================
// 🔔 Register push token - PUT /users/push-token
func (h *Handler) UpdatePushToken(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req UpdatePushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid input: " + err.Error()})
		return
	}

	if err := h.Service.UpdatePushToken(c.Request.Context(), userID, req.PushToken); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "push token updated"})
}
