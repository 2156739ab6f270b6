package reports

import (
	"fmt"
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
// 📊 Outing history - GET /reports/outings?date_range=&start_date=&end_date=&status=&mine=&format=
func (h *Handler) OutingHistory(c *gin.Context) {
	dateRange := c.DefaultQuery("date_range", DateRangeWeekly)

	start, end, err := GetDateRange(dateRange, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	filter := OutingReportFilter{
		Start:  start,
		End:    end,
		Status: c.Query("status"),
	}
	if c.Query("mine") == "true" {
		userID := c.GetUint("user_id")
		filter.UserID = &userID
	}

	format := c.Query("format")
	if format == "" {
		rows, err := h.Service.OutingHistory(c.Request.Context(), filter)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "rows": rows, "count": len(rows)})
		return
	}

	raw, filename, contentType, err := h.Service.ExportOutingHistory(c.Request.Context(), filter, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, raw)
}
