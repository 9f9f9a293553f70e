package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const passColumns = `id, member_id, title, monthly_price, entry_fee, date_start, date_end, date_of_next_payment`

func scanPass(row interface{ Scan(...any) error }) (*models.Pass, error) {
	var p models.Pass
	err := row.Scan(&p.ID, &p.MemberID, &p.Title, &p.MonthlyPrice, &p.EntryFee,
		&p.DateStart, &p.DateEnd, &p.DateOfNextPayment)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePass сохраняет абонемент. Нарушение уникальности member_id возвращается как ErrPassAlreadyExists.
func (s *Storage) CreatePass(ctx context.Context, pass *models.Pass) (int64, error) {
	const op = "storage.CreatePass"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO passes (member_id, title, monthly_price, entry_fee, date_start, date_end, date_of_next_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date) RETURNING id`
	var id int64
	err := s.conn(ctx).QueryRowContext(ctx, query,
		pass.MemberID, pass.Title, pass.MonthlyPrice, pass.EntryFee,
		pass.DateStart, pass.DateEnd, pass.DateOfNextPayment).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, models.ErrPassAlreadyExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPassByMember возвращает абонемент участника или ErrPassNotFound.
func (s *Storage) GetPassByMember(ctx context.Context, memberID int64) (*models.Pass, error) {
	const op = "storage.GetPassByMember"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+passColumns+` FROM passes WHERE member_id = $1`, memberID)
	p, err := scanPass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPassNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// HasPass сообщает, есть ли у участника абонемент.
func (s *Storage) HasPass(ctx context.Context, memberID int64) (bool, error) {
	const op = "storage.HasPass"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM passes WHERE member_id = $1)`, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListMembersDueForPayment возвращает участников, у которых дата следующего списания не позже today.
func (s *Storage) ListMembersDueForPayment(ctx context.Context, today time.Time) ([]int64, error) {
	const op = "storage.ListMembersDueForPayment"
	return s.listMemberIDs(ctx, op,
		`SELECT member_id FROM passes WHERE date_of_next_payment <= $1::date ORDER BY member_id`, today)
}

// ListMembersWithExpiredPass возвращает участников, у которых dateEnd не позже now.
func (s *Storage) ListMembersWithExpiredPass(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "storage.ListMembersWithExpiredPass"
	return s.listMemberIDs(ctx, op,
		`SELECT member_id FROM passes WHERE date_end <= $1 ORDER BY member_id`, now)
}

func (s *Storage) listMemberIDs(ctx context.Context, op, query string, arg any) ([]int64, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// UpdateNextPayment переносит дату следующего списания. Перенос назад запрещён.
func (s *Storage) UpdateNextPayment(ctx context.Context, passID int64, next time.Time) error {
	const op = "storage.UpdateNextPayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE passes SET date_of_next_payment = $2::date
		 WHERE id = $1 AND date_of_next_payment < $2::date`, passID, next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPassNotFound)
	}
	return nil
}

// DeletePass удаляет абонемент.
func (s *Storage) DeletePass(ctx context.Context, passID int64) error {
	const op = "storage.DeletePass"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM passes WHERE id = $1`, passID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPassNotFound)
	}
	return nil
}
