package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// deactivate переводит абонемент в архив: снимок в historical_passes, отмена записей
// на будущие занятия, удаление абонемента. Работает только внутри транзакции вызывающего,
// платежи не создаёт и не меняет.
func (e *Engine) deactivate(ctx context.Context, pass *models.Pass, reason models.DeactivationReason, now time.Time) error {
	snapshot := pass.Snapshot(now, reason)
	id, err := e.repo.SaveHistoricalPass(ctx, &snapshot)
	if err != nil {
		return err
	}
	if _, err = e.enrollments.CancelFutureEnrollments(ctx, pass.MemberID, now); err != nil {
		return err
	}
	if err = e.repo.DeletePass(ctx, pass.ID); err != nil {
		return err
	}

	e.log.Debug("pass archived", sl.Member(pass.MemberID),
		slog.Int64("pass_id", pass.ID),
		slog.Int64("historical_id", id),
		slog.String("reason", string(reason)))
	return nil
}

// afterDeactivate выполняется после фиксации транзакции.
func (e *Engine) afterDeactivate(ctx context.Context, member *models.Member, pass *models.Pass,
	reason models.DeactivationReason, now time.Time) {
	log := e.log.With(sl.Member(pass.MemberID), slog.Int64("pass_id", pass.ID))
	log.Info("pass deactivated", slog.String("reason", string(reason)))

	e.evictPass(ctx, log, pass.MemberID)
	e.metrics.IncPassDeactivated(string(reason))
	e.publish(ctx, log, routingDeactivated, &models.PassEvent{
		MemberID:  member.ID,
		Email:     member.Email,
		FirstName: member.FirstName,
		Title:     pass.Title,
		DateEnd:   pass.DateEnd,
		Reason:    reason,
		At:        now,
	})
}
