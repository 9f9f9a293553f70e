// Package repository реализует хранилище клуба на PostgreSQL: участники, предложения,
// карты, абонементы с архивом, журнал платежей и записи на групповые занятия.
//
// Транзакция передаётся через context: методы, вызванные внутри InTx, работают
// в той же транзакции, поэтому записи разных сервисов фиксируются или откатываются вместе.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

type txKey struct{}

// querier общий набор методов *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New открывает пул соединений и ждёт готовности PostgreSQL, повторяя ping с экспоненциальной паузой.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'passes'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table passes missing")
	}
	return nil
}

// InTx выполняет fn в транзакции. Если в ctx уже есть транзакция, fn выполняется в ней,
// а фиксацией управляет внешний вызов.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.InTx"

	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func (s *Storage) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// LockMember блокирует строку участника до конца транзакции и возвращает его данные.
// Все изменяющие операции по участнику начинаются с этой блокировки.
func (s *Storage) LockMember(ctx context.Context, memberID int64) (*models.Member, error) {
	const op = "storage.LockMember"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.scanMember(ctx, op, `SELECT id, email, first_name, last_name, created_at
		FROM members WHERE id = $1 FOR UPDATE`, memberID)
}

// GetMember возвращает участника без блокировки.
func (s *Storage) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	const op = "storage.GetMember"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.scanMember(ctx, op, `SELECT id, email, first_name, last_name, created_at
		FROM members WHERE id = $1`, memberID)
}

func (s *Storage) scanMember(ctx context.Context, op, query string, memberID int64) (*models.Member, error) {
	var m models.Member
	err := s.conn(ctx).QueryRowContext(ctx, query, memberID).
		Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrMemberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}
