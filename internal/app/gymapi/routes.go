// Package gymapi собирает HTTP API клуба: абонементы, платежи, карта и записи на занятия.
package gymapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/groupclass/enroll"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/groupclass/unenroll"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/groupclass/upcoming"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/health"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/pass/active"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/pass/create"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/pass/history"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/payment/export"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/payment/list"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/paymentmethod/register"
	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
)

// PassService операции с абонементами.
type PassService interface {
	create.Service
	active.Service
	history.Service
}

// PaymentService журнал платежей.
type PaymentService interface {
	list.Service
	export.Service
}

// EnrollmentService записи на групповые занятия.
type EnrollmentService interface {
	enroll.Service
	unenroll.Service
	upcoming.Service
}

// Services зависимости маршрутов.
type Services struct {
	Passes         PassService
	Payments       PaymentService
	PaymentMethods register.Service
	Enrollments    EnrollmentService
	Tokens         middlewarectx.TokenParser
	DB             health.Pinger
	Metrics        http.Handler
}

// RateLimit параметры ограничения частоты запросов.
type RateLimit struct {
	Limit rate.Limit
	Burst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, limit RateLimit) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, limit.Limit, limit.Burst))

		r.Post("/passes", create.New(logger, s.Passes).ServeHTTP)
		r.Get("/passes/active", active.New(logger, s.Passes).ServeHTTP)
		r.Get("/passes/history", history.New(logger, s.Passes).ServeHTTP)

		r.Get("/payments", list.New(logger, s.Payments).ServeHTTP)
		r.Get("/payments/export", export.New(logger, s.Payments).ServeHTTP)

		r.Put("/payment-method", register.New(logger, s.PaymentMethods).ServeHTTP)

		r.Post("/classes/{id}/enrollment", enroll.New(logger, s.Enrollments).ServeHTTP)
		r.Delete("/classes/{id}/enrollment", unenroll.New(logger, s.Enrollments).ServeHTTP)
		r.Get("/classes/upcoming", upcoming.New(logger, s.Enrollments).ServeHTTP)
	})

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
