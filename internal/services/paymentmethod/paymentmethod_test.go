package paymentmethod

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPaymentMethod(ctx context.Context, memberID int64) (*models.PaymentMethod, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentMethod), args.Error(1)
}

func (m *RepoMock) UpsertPaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *RepoMock) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newGateway(repo Repository) *Gateway {
	return New(repo, newNoopLogger()).WithClock(func() time.Time { return fixedNow })
}

func TestGateway_ChargeAndDescribe(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
		wantMask   string
	}{
		{
			name: "valid card",
			setupMocks: func(r *RepoMock) {
				r.On("GetPaymentMethod", mock.Anything, int64(1)).Return(&models.PaymentMethod{
					MemberID: 1, CardNumber: "4242424242424242", ExpirationMonth: 12, ExpirationYear: 2030,
				}, nil)
			},
			wantMask: "**** **** **** 4242",
		},
		{
			name: "card expiring this month is still valid",
			setupMocks: func(r *RepoMock) {
				r.On("GetPaymentMethod", mock.Anything, int64(1)).Return(&models.PaymentMethod{
					MemberID: 1, CardNumber: "5555555555554444", ExpirationMonth: 6, ExpirationYear: 2024,
				}, nil)
			},
			wantMask: "**** **** **** 4444",
		},
		{
			name: "expired card 01/20",
			setupMocks: func(r *RepoMock) {
				r.On("GetPaymentMethod", mock.Anything, int64(1)).Return(&models.PaymentMethod{
					MemberID: 1, CardNumber: "4242424242424242", ExpirationMonth: 1, ExpirationYear: 2020,
				}, nil)
			},
			wantErr: models.ErrPaymentMethodExpired,
		},
		{
			name: "no card",
			setupMocks: func(r *RepoMock) {
				r.On("GetPaymentMethod", mock.Anything, int64(1)).Return(nil, models.ErrNoPaymentMethod)
			},
			wantErr: models.ErrNoPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			receipt, err := newGateway(repo).ChargeAndDescribe(context.Background(), 1, decimal.NewFromInt(310))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, receipt)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMask, receipt.CardNumberMasked)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestGateway_HasMethod(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetPaymentMethod", mock.Anything, int64(1)).Return(&models.PaymentMethod{MemberID: 1}, nil)
	repo.On("GetPaymentMethod", mock.Anything, int64(2)).Return(nil, models.ErrNoPaymentMethod)
	repo.On("GetPaymentMethod", mock.Anything, int64(3)).Return(nil, errors.New("db down"))
	g := newGateway(repo)

	ok, err := g.HasMethod(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.HasMethod(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = g.HasMethod(context.Background(), 3)
	assert.Error(t, err)
}

func TestGateway_Register(t *testing.T) {
	tests := []struct {
		name       string
		number     string
		expiration string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name:       "success",
			number:     "4242 4242 4242 4242",
			expiration: "09/27",
			setupMocks: func(r *RepoMock) {
				r.On("GetMember", mock.Anything, int64(5)).Return(&models.Member{ID: 5}, nil)
				r.On("UpsertPaymentMethod", mock.Anything, mock.MatchedBy(func(pm *models.PaymentMethod) bool {
					return pm.MemberID == 5 && pm.CardNumber == "4242424242424242" &&
						pm.ExpirationMonth == 9 && pm.ExpirationYear == 2027
				})).Return(nil)
			},
		},
		{
			name:       "bad luhn",
			number:     "4242424242424241",
			expiration: "09/27",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrInvalidCard,
		},
		{
			name:       "bad expiration format",
			number:     "4242424242424242",
			expiration: "2027-09",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrInvalidCard,
		},
		{
			name:       "already expired",
			number:     "4242424242424242",
			expiration: "01/20",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrPaymentMethodExpired,
		},
		{
			name:       "unknown member",
			number:     "4242424242424242",
			expiration: "09/27",
			setupMocks: func(r *RepoMock) {
				r.On("GetMember", mock.Anything, int64(5)).Return(nil, models.ErrMemberNotFound)
			},
			wantErr: models.ErrMemberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			receipt, err := newGateway(repo).Register(context.Background(), 5, tt.number, tt.expiration)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "**** **** **** 4242", receipt.CardNumberMasked)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestGateway_DefaultClockIsUTC(t *testing.T) {
	g := New(new(RepoMock), newNoopLogger())
	assert.Equal(t, time.UTC, g.now().Location())
}
