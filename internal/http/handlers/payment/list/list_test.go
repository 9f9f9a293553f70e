package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListPayments(ctx context.Context, memberID int64) ([]*models.Payment, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func TestListHandler(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "payments",
			setupMocks: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(8)).
					Return([]*models.Payment{{ID: 1, MemberID: 8, PassTitle: "Basic", Amount: decimal.NewFromInt(310)}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"pass_title":"Basic"`,
		},
		{
			name: "empty",
			setupMocks: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(8)).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[]`,
		},
		{
			name: "storage failure",
			setupMocks: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(8)).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal server error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMocks(service)
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.MemberID, int64(8)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
