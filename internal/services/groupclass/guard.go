// Package groupclass управляет записью участников на групповые занятия.
// Записаться можно только с активным абонементом; при деактивации абонемента
// участник снимается со всех будущих занятий.
package groupclass

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранилище занятий и записей.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockMember(ctx context.Context, memberID int64) (*models.Member, error)
	HasPass(ctx context.Context, memberID int64) (bool, error)
	LockClass(ctx context.Context, classID int64) (*models.GroupClass, error)
	IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error)
	CreateEnrollment(ctx context.Context, classID, memberID int64, at time.Time) error
	DeleteEnrollment(ctx context.Context, classID, memberID int64) error
	ListUpcomingClasses(ctx context.Context, memberID int64, now time.Time) ([]*models.GroupClass, error)
	CancelFutureEnrollments(ctx context.Context, memberID int64, now time.Time) (int, error)
}

// Guard проверяет право на запись и каскадно отменяет записи.
type Guard struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewGuard создает Guard.
func NewGuard(repo Repository, log *slog.Logger) *Guard {
	return &Guard{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock подменяет источник текущего времени.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// HasActivePass сообщает, есть ли у участника активный абонемент.
func (g *Guard) HasActivePass(ctx context.Context, memberID int64) (bool, error) {
	return g.repo.HasPass(ctx, memberID)
}

// Enroll записывает участника на будущее занятие. Участник и занятие блокируются
// в одной транзакции, поэтому запись не пересекается с деактивацией абонемента.
func (g *Guard) Enroll(ctx context.Context, memberID, classID int64) error {
	const op = "groupclass.Enroll"
	log := g.log.With(slog.String("op", op), sl.Member(memberID), slog.Int64("class_id", classID))

	err := g.repo.InTx(ctx, func(ctx context.Context) error {
		if _, err := g.repo.LockMember(ctx, memberID); err != nil {
			return err
		}
		active, err := g.repo.HasPass(ctx, memberID)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("%s: %w", op, models.ErrNoActivePass)
		}

		class, err := g.repo.LockClass(ctx, classID)
		if err != nil {
			return err
		}
		now := g.now()
		if !class.StartsAt.After(now) {
			return fmt.Errorf("%s: %w", op, models.ErrClassStarted)
		}
		enrolled, err := g.repo.IsEnrolled(ctx, classID, memberID)
		if err != nil {
			return err
		}
		if enrolled {
			return fmt.Errorf("%s: %w", op, models.ErrAlreadyEnrolled)
		}
		if class.Full() {
			return fmt.Errorf("%s: %w", op, models.ErrClassFull)
		}
		return g.repo.CreateEnrollment(ctx, classID, memberID, now)
	})
	if err != nil {
		return err
	}

	log.Info("member enrolled")
	return nil
}

// Unenroll снимает участника с занятия, которое ещё не началось.
func (g *Guard) Unenroll(ctx context.Context, memberID, classID int64) error {
	const op = "groupclass.Unenroll"

	err := g.repo.InTx(ctx, func(ctx context.Context) error {
		if _, err := g.repo.LockMember(ctx, memberID); err != nil {
			return err
		}
		class, err := g.repo.LockClass(ctx, classID)
		if err != nil {
			return err
		}
		if !class.StartsAt.After(g.now()) {
			return fmt.Errorf("%s: %w", op, models.ErrClassStarted)
		}
		return g.repo.DeleteEnrollment(ctx, classID, memberID)
	})
	if err != nil {
		return err
	}

	g.log.Info("member unenrolled", slog.String("op", op), sl.Member(memberID), slog.Int64("class_id", classID))
	return nil
}

// ListUpcoming возвращает занятия, на которые записан участник и которые ещё не начались.
func (g *Guard) ListUpcoming(ctx context.Context, memberID int64) ([]*models.GroupClass, error) {
	return g.repo.ListUpcomingClasses(ctx, memberID, g.now())
}

// CancelFutureEnrollments снимает участника со всех занятий, начинающихся после now.
// Вызывается только при деактивации абонемента, в транзакции вызывающего.
func (g *Guard) CancelFutureEnrollments(ctx context.Context, memberID int64, now time.Time) (int, error) {
	n, err := g.repo.CancelFutureEnrollments(ctx, memberID, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		g.log.Info("future enrollments cancelled", sl.Member(memberID), slog.Int("count", n))
	}
	return n, nil
}
