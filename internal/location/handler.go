package location

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
// 🏫 Gate check-in - POST /location/checkin
func (h *Handler) CheckIn(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input CheckRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid input: " + err.Error()})
		return
	}

	event, err := h.Service.CheckIn(c.Request.Context(), userID, input, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

// ===========================
// 🏁 Gate check-out - POST /location/checkout
func (h *Handler) CheckOut(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input CheckRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid input: " + err.Error()})
		return
	}

	event, err := h.Service.CheckOut(c.Request.Context(), userID, input, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

// ===========================
// 📍 Gate status - GET /location/gate-status/:id
func (h *Handler) GateStatus(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid group id"})
		return
	}

	status, err := h.Service.GateStatus(c.Request.Context(), userID, uint(id))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
