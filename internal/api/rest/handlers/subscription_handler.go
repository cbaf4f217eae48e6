package handlers

import (
	"net/http"

	"github.com/Dhoini/billing-service/internal/middleware"
	"github.com/Dhoini/billing-service/internal/service"
	"github.com/Dhoini/billing-service/internal/statuscache"
	"github.com/Dhoini/billing-service/pkg/logger"
	"github.com/Dhoini/billing-service/pkg/req"
	"github.com/gin-gonic/gin"
)

// SyncRequest тело запроса на ручную синхронизацию с провайдером
type SyncRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	Force      bool   `json:"force"`
}

// SubscriptionHandler обработчик для статуса и синхронизации подписок
type SubscriptionHandler struct {
	status *statuscache.Cache
	sync   *service.SyncService
	log    *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(status *statuscache.Cache, sync *service.SyncService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		status: status,
		sync:   sync,
		log:    log,
	}
}

// GetStatus возвращает статус подписки текущего пользователя
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID, ok := userIDFromContext(c, string(middleware.ContextUserIDKey))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	info, err := h.status.GetStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Sync выполняет ручную синхронизацию подписок клиента провайдера
func (h *SubscriptionHandler) Sync(c *gin.Context) {
	var w http.ResponseWriter = c.Writer
	body, err := req.HandleBody[SyncRequest](&w, c.Request, h.log)
	if err != nil {
		return
	}

	report, err := h.sync.Sync(c.Request.Context(), body.CustomerID, body.Force)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
