package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"pass exists", models.ErrPassAlreadyExists, http.StatusConflict, "pass already exists"},
		{"wrapped offer not found", fmt.Errorf("offer.Resolve: %w", models.ErrOfferNotFound), http.StatusNotFound, "offer not found"},
		{"member not found", models.ErrMemberNotFound, http.StatusNotFound, "member not found"},
		{"no payment method", models.ErrNoPaymentMethod, http.StatusForbidden, "no payment method"},
		{"expired card", fmt.Errorf("paymentmethod.ChargeAndDescribe: %w", models.ErrPaymentMethodExpired), http.StatusBadRequest, "payment method expired"},
		{"no active pass", models.ErrNoActivePass, http.StatusForbidden, "no active pass"},
		{"class full", models.ErrClassFull, http.StatusConflict, "group class is full"},
		{"class started", models.ErrClassStarted, http.StatusConflict, "group class already started"},
		{"already enrolled", models.ErrAlreadyEnrolled, http.StatusConflict, "already enrolled"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		OfferID int64  `validate:"required,gt=0"`
		Card    string `validate:"required,numeric"`
	}

	err := validator.New().Struct(request{Card: "abc"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field OfferID is a required field")
	assert.Contains(t, resp.Error, "field Card can contain only numbers")
}

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]any{"id": 1})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]any{"id": 1}, resp.Data)
}
