// Package upcoming реализует HTTP-обработчик списка будущих занятий участника.
package upcoming

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

// Service описывает чтение будущих занятий.
type Service interface {
	ListUpcoming(ctx context.Context, memberID int64) ([]*models.GroupClass, error)
}

// Handler обрабатывает запросы на список будущих занятий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Будущие занятия участника
// @Tags GroupClasses
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.GroupClass}
// @Failure 401 {object} response.ErrorResponse
// @Router /classes/upcoming [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groupclass.upcoming"
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

	classes, err := h.service.ListUpcoming(r.Context(), memberID)
	if err != nil {
		log.Error("failed to list upcoming classes", sl.Member(memberID), sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	if classes == nil {
		classes = []*models.GroupClass{}
	}

	render.JSON(w, r, response.OKWithData(classes))
}
