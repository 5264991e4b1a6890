package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

var errUnknownItem = errors.New("unknown item")

// writeError maps domain errors to HTTP responses
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please check your order details", "fields": verr.Fields})
	case errors.Is(err, workflow.ErrEmptyBox):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Your box is empty. Add some fruit first! 🍌"})
	case errors.Is(err, errUnknownItem):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrRecommendationPending),
		errors.Is(err, workflow.ErrSubmissionInProgress),
		errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, repository.ErrSessionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrUnknownReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session expired, please reload"})
	case errors.Is(err, service.ErrUnexpected):
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.NoticeUnexpected})
	default:
		logger.Error("writeError: unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.NoticeUnexpected})
	}
}
