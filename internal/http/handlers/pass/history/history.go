// Package history реализует HTTP-обработчик архива абонементов участника.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Service описывает чтение архива.
type Service interface {
	GetPassHistory(ctx context.Context, memberID int64) ([]*models.HistoricalPass, error)
}

// Handler обрабатывает запросы на чтение архива абонементов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Архив абонементов
// @Description Завершённые абонементы участника, новые первыми.
// @Tags Passes
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.HistoricalPass}
// @Failure 401 {object} response.ErrorResponse
// @Router /passes/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pass.history"
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

	passes, err := h.service.GetPassHistory(r.Context(), memberID)
	if err != nil {
		log.Error("failed to get pass history", sl.Member(memberID), sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	if passes == nil {
		passes = []*models.HistoricalPass{}
	}

	render.JSON(w, r, response.OKWithData(passes))
}
