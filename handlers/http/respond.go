package httpHandler

import (
	"net/http"

	"energy-server/apperrors"
	"energy-server/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindAuth:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err onto its status and a {"message"} body. Causes of
// internal errors are logged, never returned.
func respondError(c *gin.Context, err error) {
	status := statusFor(apperrors.KindOf(err))
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("Request failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"message": apperrors.MessageOf(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}
