package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError переводит доменную ошибку в HTTP ответ.
// Ошибки хранилища и конфигурации наружу не детализируются.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var notFound *domain.NotFoundError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})

	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})

	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})

	default:
		log.Errorw("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// userIDFromContext возвращает ID аутентифицированного пользователя.
func userIDFromContext(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
