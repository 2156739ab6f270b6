package outing

import (
	"net/http"
	"strconv"
	"time"

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
// 🎒 Create outing request - POST /outings
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input CreateOutingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid input: " + err.Error()})
		return
	}

	req, err := h.Service.Create(c.Request.Context(), userID, input, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "request": req})
}

// ===========================
// 🔎 Browse joinable requests - GET /outings?status=&date=&exclude_own=
func (h *Handler) Browse(c *gin.Context) {
	filter := BrowseFilter{
		Status:     c.Query("status"),
		ExcludeOwn: c.DefaultQuery("exclude_own", "true") == "true",
		UserID:     c.GetUint("user_id"),
	}

	if raw := c.Query("date"); raw != "" {
		date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid date format, use YYYY-MM-DD"})
			return
		}
		filter.Date = &date
	}

	requests, err := h.Service.Browse(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "requests": requests, "count": len(requests)})
}

// ===========================
// 🗂 My requests - GET /outings/mine
func (h *Handler) MyRequests(c *gin.Context) {
	userID := c.GetUint("user_id")

	requests, err := h.Service.MyRequests(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "requests": requests, "count": len(requests)})
}

// ===========================
// 📄 Single request - GET /outings/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}

	req, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

// ===========================
// 🚪 Leave / cancel - DELETE /outings/:id/membership
func (h *Handler) Leave(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}

	req, err := h.Service.Leave(c.Request.Context(), userID, id, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
