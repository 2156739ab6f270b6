package message

import (
	"net/http"
	"strconv"

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
// 💬 Send message - POST /messages
func (h *Handler) Send(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input SendMessageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid input: " + err.Error()})
		return
	}

	msg, err := h.Service.Send(c.Request.Context(), userID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": msg})
}

// ===========================
// 🗨 Message history - GET /messages/:groupId
func (h *Handler) List(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("groupId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid group id"})
		return
	}

	messages, err := h.Service.List(c.Request.Context(), userID, uint(id))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "count": len(messages)})
}
