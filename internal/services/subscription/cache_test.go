package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/metrics"
	"github.com/magabrotheeeer/gym-membership/internal/models"
	"github.com/magabrotheeeer/gym-membership/internal/services/offer"
	"github.com/magabrotheeeer/gym-membership/internal/services/payment"
)

// hookStore вызывает onRead один раз, сразу после первого чтения абонемента.
type hookStore struct {
	*memStore
	onRead func()
}

func (s *hookStore) GetPassByMember(ctx context.Context, memberID int64) (*models.Pass, error) {
	p, err := s.memStore.GetPassByMember(ctx, memberID)
	if hook := s.onRead; hook != nil {
		s.onRead = nil
		hook()
	}
	return p, err
}

func TestEngine_GetActivePass_DeactivationBetweenReadAndCacheFill(t *testing.T) {
	f := newFixture(t)
	f.memberWithCard(1, 12, 2030)
	pass := f.buyPass(t, 1)
	f.clock.Set(pass.DateEnd.Add(time.Hour))

	store := &hookStore{memStore: f.store}
	e := New(Deps{
		Repo:        store,
		Gateway:     f.gateway,
		Offers:      offer.NewCatalog(f.store),
		Ledger:      payment.NewLedger(f.store, newNoopLogger()),
		Enrollments: f.store,
		Cache:       f.cache,
		Publisher:   f.pub,
		Metrics:     metrics.Noop{},
	}, newNoopLogger(), 1, time.Hour).WithClock(f.clock.Now)

	done := make(chan SweepReport, 1)
	store.onRead = func() {
		go func() { done <- e.DeactivateExpiredPasses(context.Background()) }()
		// даём сверке время завершиться, если её ничто не блокирует
		select {
		case r := <-done:
			done <- r
		case <-time.After(50 * time.Millisecond):
		}
	}

	got, err := e.GetActivePass(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, pass.ID, got.ID)

	report := <-done
	require.NoError(t, report.Err)
	assert.Equal(t, 1, report.Deactivated)
	assert.Equal(t, 0, f.store.passCount(1))

	_, err = e.GetActivePass(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrPassNotFound)
	assert.NotContains(t, f.cache.items, passCacheKey(1))
}

func TestEngine_GetActivePass_UnknownMember(t *testing.T) {
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "pass:member:9", mock.Anything).Return(false, nil).Once()

	e := New(Deps{Repo: newMemStore(), Cache: cache, Metrics: metrics.Noop{}}, newNoopLogger(), 1, time.Hour)

	_, err := e.GetActivePass(context.Background(), 9)
	require.ErrorIs(t, err, models.ErrPassNotFound)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_EvictPass(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(c *CacheMock)
		calls      int
	}{
		{
			name: "first attempt",
			setupMocks: func(c *CacheMock) {
				c.On("Invalidate", mock.Anything, "pass:member:1").Return(nil).Once()
			},
			calls: 1,
		},
		{
			name: "retries after redis error",
			setupMocks: func(c *CacheMock) {
				c.On("Invalidate", mock.Anything, "pass:member:1").Return(errors.New("redis down")).Twice()
				c.On("Invalidate", mock.Anything, "pass:member:1").Return(nil).Once()
			},
			calls: 3,
		},
		{
			name: "gives up",
			setupMocks: func(c *CacheMock) {
				c.On("Invalidate", mock.Anything, "pass:member:1").Return(errors.New("redis down"))
			},
			calls: evictRetries + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(CacheMock)
			tt.setupMocks(cache)
			e := New(Deps{Repo: newMemStore(), Cache: cache, Metrics: metrics.Noop{}}, newNoopLogger(), 1, time.Hour)

			e.evictPass(context.Background(), e.log, 1)

			cache.AssertNumberOfCalls(t, "Invalidate", tt.calls)
		})
	}
}
