// Package register реализует HTTP-обработчик сохранения карты участника.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Request данные карты. Срок действия в формате MM/YY.
type Request struct {
	CardNumber string `json:"card_number" validate:"required,min=12,max=23" example:"4242 4242 4242 4242"`
	Expiration string `json:"expiration" validate:"required,len=5" example:"12/30"`
}

// Service описывает регистрацию карты.
type Service interface {
	Register(ctx context.Context, memberID int64, number, expiration string) (*models.ChargeReceipt, error)
}

// Handler обрабатывает запросы на сохранение карты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранить карту
// @Description Проверяет номер и срок действия карты и заменяет ранее сохранённую.
// @Tags PaymentMethod
// @Accept  json
// @Produce  json
// @Param request body Request true "Карта"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная или истёкшая карта"
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /payment-method [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.paymentmethod.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	memberID, ok := middlewarectx.MemberIDFromContext(r.Context())
	if !ok {
		log.Error("member id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	receipt, err := h.service.Register(r.Context(), memberID, req.CardNumber, req.Expiration)
	if err != nil {
		status, resp := response.FromError(err)
		log.Info("failed to register payment method", sl.Member(memberID), slog.Int("status", status), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"card_number_masked": receipt.CardNumberMasked,
		"expiration_month":   receipt.ExpirationMonth,
		"expiration_year":    receipt.ExpirationYear,
	}))
}
