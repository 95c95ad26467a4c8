package response

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleanbook/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope matching a domain error. Anything outside the
// domain taxonomy is logged and reported as INTERNAL_ERROR.
func FromError(c *gin.Context, err error) {
	if ce, ok := domain.IsConflict(err); ok {
		ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT", "Slot is already reserved", gin.H{
			"reservation_id": ce.ReservationID,
			"same_owner":     ce.SameOwner,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", detail(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", detail(err, domain.ErrInvalidTransition))
	case errors.Is(err, domain.ErrAlreadyReviewed):
		Error(c, http.StatusConflict, "ALREADY_REVIEWED", "Reservation already has a review")
	default:
		_ = c.Error(err)
		log.Printf("internal_error path=%s error=%v", c.Request.URL.Path, err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// detail strips the sentinel prefix from a wrapped message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
