package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// handleServiceError maps service errors to HTTP status codes.
// Attempt state-machine sentinels come first: they are the interesting cases
// for the quiz-taking UI.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrAttemptExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error(), "error_type": "attempt_expired"})
	case errors.Is(err, repository.ErrAttemptAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "attempt_in_progress"})
	case errors.Is(err, repository.ErrAttemptLimitExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "attempt_limit_exceeded"})
	case errors.Is(err, repository.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "attempt_not_active"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// pagination extracts page/per_page query parameters as limit and offset
func pagination(c *gin.Context) (limit, offset int) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
