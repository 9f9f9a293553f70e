// Package create реализует HTTP-обработчик покупки абонемента.
//
// Handler принимает идентификатор предложения, берёт участника из контекста,
// вызывает SubscriptionEngine и возвращает созданный абонемент.
package create

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

// Request тело запроса на покупку абонемента.
type Request struct {
	OfferID int64 `json:"offer_id" validate:"required,gt=0" example:"1"`
}

// Service описывает бизнес-логику покупки абонемента.
type Service interface {
	CreatePass(ctx context.Context, memberID, offerID int64) (*models.Pass, error)
}

// Handler обрабатывает запросы на покупку абонемента.
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
// @Summary Купить абонемент
// @Description Списывает месячную цену и вступительный взнос с сохранённой карты и создаёт абонемент.
// @Tags Passes
// @Accept  json
// @Produce  json
// @Param request body Request true "Предложение"
// @Success 201 {object} response.Response{data=models.Pass}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или карта истекла"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет сохранённой карты"
// @Failure 404 {object} response.ErrorResponse "Предложение не найдено"
// @Failure 409 {object} response.ErrorResponse "Абонемент уже есть"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /passes [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pass.create"
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

	pass, err := h.service.CreatePass(r.Context(), memberID, req.OfferID)
	if err != nil {
		status, resp := response.FromError(err)
		log.Info("failed to create pass", sl.Member(memberID), slog.Int("status", status), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(pass))
}
