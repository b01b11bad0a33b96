package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "lumikid.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. AppError carries its own status; bare domain
// sentinels are mapped through StatusOf.
func Error(c *gin.Context, err error) {
	if appErr, ok := err.(*domainerrors.AppError); ok {
		c.JSON(appErr.Status, gin.H{
			"message": appErr.Message,
			"error":   appErr.Message,
		})
		return
	}

	status := domainerrors.StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{
		"message": message,
		"error":   message,
	})
}
