package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// LockClass блокирует строку занятия до конца транзакции.
func (s *Storage) LockClass(ctx context.Context, classID int64) (*models.GroupClass, error) {
	const op = "storage.LockClass"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var c models.GroupClass
	var trainerID sql.NullInt64
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, trainer_id, starts_at, member_limit, members_count
		 FROM group_classes WHERE id = $1 FOR UPDATE`, classID).
		Scan(&c.ID, &c.Name, &trainerID, &c.StartsAt, &c.MemberLimit, &c.MembersCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrClassNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.TrainerID = trainerID.Int64
	return &c, nil
}

// IsEnrolled сообщает, записан ли участник на занятие.
func (s *Storage) IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error) {
	const op = "storage.IsEnrolled"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_enrollments WHERE class_id = $1 AND member_id = $2)`,
		classID, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateEnrollment записывает участника на занятие и увеличивает счётчик участников.
func (s *Storage) CreateEnrollment(ctx context.Context, classID, memberID int64, at time.Time) error {
	const op = "storage.CreateEnrollment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO class_enrollments (class_id, member_id, enrolled_at) VALUES ($1, $2, $3)`,
		classID, memberID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrAlreadyEnrolled)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.conn(ctx).ExecContext(ctx,
		`UPDATE group_classes SET members_count = members_count + 1 WHERE id = $1`, classID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteEnrollment снимает участника с занятия и уменьшает счётчик участников.
func (s *Storage) DeleteEnrollment(ctx context.Context, classID, memberID int64) error {
	const op = "storage.DeleteEnrollment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM class_enrollments WHERE class_id = $1 AND member_id = $2`, classID, memberID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotEnrolled)
	}

	if _, err = s.conn(ctx).ExecContext(ctx,
		`UPDATE group_classes SET members_count = members_count - 1 WHERE id = $1`, classID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUpcomingClasses возвращает занятия участника, которые начнутся после now, по времени начала.
func (s *Storage) ListUpcomingClasses(ctx context.Context, memberID int64, now time.Time) ([]*models.GroupClass, error) {
	const op = "storage.ListUpcomingClasses"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT gc.id, gc.name, gc.trainer_id, gc.starts_at, gc.member_limit, gc.members_count
		 FROM group_classes gc
		 JOIN class_enrollments ce ON ce.class_id = gc.id
		 WHERE ce.member_id = $1 AND gc.starts_at > $2
		 ORDER BY gc.starts_at, gc.id`, memberID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.GroupClass, 0)
	for rows.Next() {
		var c models.GroupClass
		var trainerID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &trainerID, &c.StartsAt, &c.MemberLimit, &c.MembersCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.TrainerID = trainerID.Int64
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CancelFutureEnrollments одной командой снимает участника со всех занятий, начинающихся
// после now, и уменьшает их счётчики. Прошедшие занятия не затрагиваются.
func (s *Storage) CancelFutureEnrollments(ctx context.Context, memberID int64, now time.Time) (int, error) {
	const op = "storage.CancelFutureEnrollments"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `WITH removed AS (
		DELETE FROM class_enrollments ce
		USING group_classes gc
		WHERE ce.class_id = gc.id AND ce.member_id = $1 AND gc.starts_at > $2
		RETURNING ce.class_id
	), updated AS (
		UPDATE group_classes
		SET members_count = members_count - 1
		WHERE id IN (SELECT class_id FROM removed)
		RETURNING id
	)
	SELECT COUNT(*) FROM updated`

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, query, memberID, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
