// Package enroll реализует HTTP-обработчик записи на групповое занятие.
package enroll

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
)

// Service описывает запись на занятие.
type Service interface {
	Enroll(ctx context.Context, memberID, classID int64) error
}

// Handler обрабатывает запросы на запись.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Записаться на групповое занятие
// @Tags GroupClasses
// @Produce  json
// @Param id path int true "Идентификатор занятия"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Нет активного абонемента"
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /classes/{id}/enrollment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groupclass.enroll"
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

	classID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || classID <= 0 {
		log.Info("failed to decode id from url", slog.String("id", chi.URLParam(r, "id")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid class id"))
		return
	}

	if err = h.service.Enroll(r.Context(), memberID, classID); err != nil {
		status, resp := response.FromError(err)
		log.Info("enrollment rejected", sl.Member(memberID), slog.Int64("class_id", classID),
			slog.Int("status", status), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"class_id": classID,
	}))
}
