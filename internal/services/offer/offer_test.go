package offer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func TestCatalog_Resolve(t *testing.T) {
	active := &models.Offer{
		ID: 1, Title: "Standard", MonthlyPrice: decimal.NewFromInt(300),
		EntryFee: decimal.NewFromInt(10), DurationMonths: 6, IsActive: true,
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
		anyErr     bool
	}{
		{
			name: "active offer",
			setupMocks: func(r *RepoMock) {
				r.On("GetOffer", mock.Anything, int64(1)).Return(active, nil)
			},
		},
		{
			name: "inactive offer",
			setupMocks: func(r *RepoMock) {
				r.On("GetOffer", mock.Anything, int64(1)).Return(&models.Offer{ID: 1, DurationMonths: 6}, nil)
			},
			wantErr: models.ErrOfferNotFound,
		},
		{
			name: "missing offer",
			setupMocks: func(r *RepoMock) {
				r.On("GetOffer", mock.Anything, int64(1)).Return(nil, models.ErrOfferNotFound)
			},
			wantErr: models.ErrOfferNotFound,
		},
		{
			name: "storage error",
			setupMocks: func(r *RepoMock) {
				r.On("GetOffer", mock.Anything, int64(1)).Return(nil, errors.New("db down"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			got, err := NewCatalog(repo).Resolve(context.Background(), 1)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrOfferNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, "310", got.FirstCharge().String())
			}
		})
	}
}
