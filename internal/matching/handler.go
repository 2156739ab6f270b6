package matching

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
// 🤝 Join a request - POST /matching/join/:requestId
func (h *Handler) Join(c *gin.Context) {
	userID := c.GetUint("user_id")

	requestID, err := strconv.ParseUint(c.Param("requestId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}

	req, grp, err := h.Service.Join(c.Request.Context(), userID, uint(requestID), c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	resp := gin.H{"success": true, "request": req}
	if grp != nil {
		resp["group"] = grp
	}
	c.JSON(http.StatusOK, resp)
}

// ===========================
// ⚡ Auto-match - POST /matching/auto-match
func (h *Handler) AutoMatch(c *gin.Context) {
	userID := c.GetUint("user_id")

	result, err := h.Service.AutoMatch(c.Request.Context(), userID, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// ===========================
// 💡 Match suggestions - GET /matching/suggestions
func (h *Handler) Suggestions(c *gin.Context) {
	userID := c.GetUint("user_id")

	suggestions, err := h.Service.Suggestions(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "suggestions": suggestions, "count": len(suggestions)})
}

// ===========================
// 👥 Active group - GET /matching/active-group
func (h *Handler) ActiveGroup(c *gin.Context) {
	userID := c.GetUint("user_id")

	target, err := h.Service.ActiveGroup(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "group": target})
}
