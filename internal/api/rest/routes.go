package rest

import (
	"github.com/Dhoini/billing-service/internal/api/rest/handlers"
	restmiddleware "github.com/Dhoini/billing-service/internal/api/rest/middleware"
	"github.com/Dhoini/billing-service/internal/middleware"
	"github.com/Dhoini/billing-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers собирает обработчики, подключаемые к роутеру
type Handlers struct {
	Checkout     *handlers.CheckoutHandler
	Subscription *handlers.SubscriptionHandler
	Webhook      *handlers.WebhookHandler
	Auth         *middleware.JWTMiddleware
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(log *logger.Logger, registry *prometheus.Registry, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(restmiddleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		// Страница возврата из checkout запрашивает сессию до того, как
		// клиент успевает получить свежий токен, поэтому без авторизации
		v1.GET("/session/:sessionId", h.Checkout.GetCheckoutSession)

		authed := v1.Group("")
		authed.Use(h.Auth.RequireAuth())
		{
			authed.POST("/checkout", h.Checkout.CreateCheckoutSession)
			authed.POST("/customer-portal", h.Checkout.CreatePortalSession)

			subscriptions := authed.Group("/subscription")
			{
				subscriptions.GET("/status", h.Subscription.GetStatus)
				subscriptions.POST("/sync", h.Subscription.Sync)
			}
		}
	}

	// Вебхуки на корневом уровне роутера, подпись проверяет сам обработчик
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", h.Webhook.HandleStripeWebhook)
	}

	return r
}
