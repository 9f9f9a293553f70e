package response

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

var domainErrors = []struct {
	err    error
	status int
}{
	{models.ErrPassAlreadyExists, http.StatusConflict},
	{models.ErrOfferNotFound, http.StatusNotFound},
	{models.ErrMemberNotFound, http.StatusNotFound},
	{models.ErrPassNotFound, http.StatusNotFound},
	{models.ErrClassNotFound, http.StatusNotFound},
	{models.ErrNotEnrolled, http.StatusNotFound},
	{models.ErrNoPaymentMethod, http.StatusForbidden},
	{models.ErrNoActivePass, http.StatusForbidden},
	{models.ErrPaymentMethodExpired, http.StatusBadRequest},
	{models.ErrInvalidCard, http.StatusBadRequest},
	{models.ErrClassFull, http.StatusConflict},
	{models.ErrClassStarted, http.StatusConflict},
	{models.ErrAlreadyEnrolled, http.StatusConflict},
}

// FromError сопоставляет ошибку бизнес-логики с HTTP-статусом и текстом для клиента.
// Неизвестные ошибки превращаются в 500 без подробностей.
func FromError(err error) (int, ErrorResponse) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			return de.status, Error(de.err.Error())
		}
	}
	return http.StatusInternalServerError, Error("internal server error")
}
