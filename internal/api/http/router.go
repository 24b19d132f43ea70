package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/inquiry-service/internal/api/http/handlers"
	"github.com/spec-kit/inquiry-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Public         *handlers.PublicHandler
	Inquiries      *handlers.InquiriesHandler
	SMS            *handlers.SMSHandler
	AuthMiddleware *auth.Middleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/healthz", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	app.Post("/contact", cfg.Public.SubmitInquiry)
	app.Post("/upload-request", cfg.Public.RequestUploadURLs)
	app.Post("/auth/naver/token", cfg.Public.ExchangeNaverToken)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/inquiries", cfg.Inquiries.List)
	protected.Get("/inquiries/:id", cfg.Inquiries.Get)
	protected.Patch("/inquiries/:id", cfg.Inquiries.Update)
	protected.Delete("/inquiries/:id", cfg.Inquiries.Delete)
	protected.Post("/inquiries/:id/confirm", cfg.Inquiries.Confirm)
	protected.Get("/inquiries/:id/attachments/urls", cfg.Inquiries.AttachmentURLs)
	protected.Post("/sms/send", cfg.SMS.Send)
}
