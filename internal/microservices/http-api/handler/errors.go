package handler

import (
	"errors"
	"net/http"

	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError maps service errors to HTTP statuses in one place so every
// handler answers consistently. gorm.ErrDuplicatedKey covers the unique
// slugs and the username/email columns, where a lost concurrent insert race
// surfaces the constraint instead of a service sentinel.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, repository.ErrDuplicateReview),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, service.ErrNameInUse),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, permission.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTitleNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
