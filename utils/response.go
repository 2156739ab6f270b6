package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juetgo/outing-management-backend/internal/apperr"
)

// RespondError maps a domain error to an HTTP status and writes the
// standard failure body.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindPolicy:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
	})
}
