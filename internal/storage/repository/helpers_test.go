package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/gym-membership/internal/migrations"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("gym"),
		postgres.WithUsername("gym"),
		postgres.WithPassword("gym"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory создаёт тестовые данные напрямую в БД.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func (f *TestDataFactory) CreateMember(t *testing.T, email string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO members (email, first_name, last_name)
		VALUES ($1, 'Ivan', 'Ivanov') RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreateOffer(t *testing.T, title string, monthly, fee string, months int, active bool) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO offers (title, monthly_price, entry_fee, duration_months, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, title, monthly, fee, months, active).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreatePass(t *testing.T, memberID int64, start time.Time, months int) *models.Pass {
	p := &models.Pass{
		MemberID:          memberID,
		Title:             "Standard",
		MonthlyPrice:      decimal.RequireFromString("300"),
		EntryFee:          decimal.RequireFromString("10"),
		DateStart:         start,
		DateEnd:           start.AddDate(0, months, 0),
		DateOfNextPayment: start.AddDate(0, 1, 0),
	}
	id, err := f.storage.CreatePass(context.Background(), p)
	require.NoError(t, err)
	p.ID = id
	return p
}

func (f *TestDataFactory) CreateClass(t *testing.T, name string, startsAt time.Time, limit int) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO group_classes (name, starts_at, member_limit)
		VALUES ($1, $2, $3) RETURNING id`, name, startsAt, limit).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) MembersCount(t *testing.T, classID int64) int {
	var n int
	err := f.storage.DB.QueryRow(`SELECT members_count FROM group_classes WHERE id = $1`, classID).Scan(&n)
	require.NoError(t, err)
	return n
}
