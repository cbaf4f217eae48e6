package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/internal/middleware"
	"github.com/Dhoini/billing-service/internal/service"
	"github.com/Dhoini/billing-service/internal/statuscache"
	"github.com/Dhoini/billing-service/pkg/logger"
	"github.com/Dhoini/billing-service/pkg/req"
	"github.com/gin-gonic/gin"
)

// CheckoutRequest тело запроса на создание checkout-сессии
type CheckoutRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// portalNotConfiguredCode код ошибки Stripe при ненастроенном клиентском портале
const portalNotConfiguredCode = "billing_portal_session_not_allowed"

// CheckoutHandler обработчик для checkout-сессий и клиентского портала
type CheckoutHandler struct {
	checkout    *service.CheckoutService
	statusCache *statuscache.Cache
	log         *logger.Logger
}

// NewCheckoutHandler создает новый обработчик checkout
func NewCheckoutHandler(checkout *service.CheckoutService, statusCache *statuscache.Cache, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:    checkout,
		statusCache: statusCache,
		log:         log,
	}
}

// CreateCheckoutSession создает платежную сессию для текущего пользователя
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := userIDFromContext(c, string(middleware.ContextUserIDKey))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var w http.ResponseWriter = c.Writer
	body, err := req.HandleBody[CheckoutRequest](&w, c.Request, h.log)
	if err != nil {
		return
	}

	email, _ := userIDFromContext(c, string(middleware.ContextUserEmailKey))

	session, err := h.checkout.CreateSession(c.Request.Context(), domain.CheckoutParams{
		UserID:    userID,
		UserEmail: email,
		ReturnURL: body.ReturnURL,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID})
}

// GetCheckoutSession возвращает проекцию checkout-сессии после возврата
// с платежной страницы. Статус пользователя при этом сбрасывается из кеша:
// webhook мог прийти раньше, чем клиент вернулся.
func (h *CheckoutHandler) GetCheckoutSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	session, err := h.checkout.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if h.statusCache != nil {
		if userID := session.Metadata["userId"]; userID != "" {
			h.statusCache.Invalidate(userID)
		}
	}

	c.JSON(http.StatusOK, session)
}

// CreatePortalSession создает ссылку на клиентский портал провайдера
func (h *CheckoutHandler) CreatePortalSession(c *gin.Context) {
	userID, ok := userIDFromContext(c, string(middleware.ContextUserIDKey))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	url, err := h.checkout.CreatePortalLink(c.Request.Context(), userID)
	if err != nil {
		var extErr *domain.ExternalServiceError
		if errors.As(err, &extErr) {
			// Ненастроенный портал — проблема конфигурации, ее должен чинить
			// вызывающий; остальные ошибки провайдера отдаем как 500
			if extErr.Code == portalNotConfiguredCode {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Customer portal not configured",
					"details": "Please configure the customer portal in your Stripe Dashboard under Settings > Billing > Customer portal",
				})
				return
			}
			h.log.Errorw("Failed to create customer portal session", "error", err, "userID", userID)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to create portal session",
				"details": extErr.Message,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
