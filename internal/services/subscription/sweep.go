package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"

	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Названия сверок.
const (
	SweepCharge     = "charge"
	SweepExpiration = "expiration"
)

// SweepReport итог одной сверки.
type SweepReport struct {
	Sweep       string
	Total       int
	Charged     int
	Deactivated int
	Skipped     int
	Failed      int
	// Err объединяет ошибки отдельных абонементов и ошибку выборки.
	Err error
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCharged
	outcomeDeactivated
)

type memberFunc func(ctx context.Context, memberID int64, now time.Time) (outcome, error)

// ChargeForActivePasses списывает месячную цену со всех абонементов, у которых дата
// следующего списания не позже сегодняшней. Если карта отсутствует или истекла,
// абонемент деактивируется с причиной payment_failed. Повторный запуск в тот же день
// ничего не списывает: дата проверяется заново под блокировкой участника.
func (e *Engine) ChargeForActivePasses(ctx context.Context) SweepReport {
	now := e.now()
	ids, err := e.repo.ListMembersDueForPayment(ctx, dateOf(now))
	return e.sweep(ctx, SweepCharge, now, ids, err, e.chargeMember)
}

// DeactivateExpiredPasses деактивирует все абонементы, у которых dateEnd уже наступил,
// независимо от состояния оплаты.
func (e *Engine) DeactivateExpiredPasses(ctx context.Context) SweepReport {
	now := e.now()
	ids, err := e.repo.ListMembersWithExpiredPass(ctx, now)
	return e.sweep(ctx, SweepExpiration, now, ids, err, e.expireMember)
}

// sweep обрабатывает участников параллельно, не больше e.workers одновременно.
// Ошибка или паника по одному участнику не останавливает обработку остальных.
func (e *Engine) sweep(ctx context.Context, name string, now time.Time, ids []int64, listErr error, fn memberFunc) SweepReport {
	log := e.log.With(slog.String("op", "subscription.sweep"), slog.String("sweep", name))
	started := time.Now()
	report := SweepReport{Sweep: name}

	if listErr != nil {
		log.Error("failed to list passes", sl.Err(listErr))
		report.Err = listErr
		e.metrics.ObserveSweep(name, time.Since(started), 0)
		return report
	}
	report.Total = len(ids)

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	p := pool.New().WithMaxGoroutines(e.workers)
	for _, memberID := range ids {
		p.Go(func() {
			res, err := e.safeRun(ctx, fn, memberID, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				errs = multierror.Append(errs, fmt.Errorf("member %d: %w", memberID, err))
				log.Error("failed to process pass", sl.Member(memberID), sl.Err(err))
				return
			}
			switch res {
			case outcomeCharged:
				report.Charged++
			case outcomeDeactivated:
				report.Deactivated++
			default:
				report.Skipped++
			}
		})
	}
	p.Wait()

	report.Err = errs.ErrorOrNil()
	e.metrics.ObserveSweep(name, time.Since(started), report.Failed)
	log.Info("sweep finished",
		slog.Int("total", report.Total),
		slog.Int("charged", report.Charged),
		slog.Int("deactivated", report.Deactivated),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report
}

func (e *Engine) safeRun(ctx context.Context, fn memberFunc, memberID int64, now time.Time) (res outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, memberID, now)
}

// chargeMember выполняет одно ежемесячное списание в отдельной транзакции.
func (e *Engine) chargeMember(ctx context.Context, memberID int64, now time.Time) (outcome, error) {
	today := dateOf(now)

	var (
		res     = outcomeSkipped
		member  *models.Member
		pass    *models.Pass
		payment *models.Payment
		next    time.Time
	)
	err := e.repo.InTx(ctx, func(ctx context.Context) error {
		res = outcomeSkipped
		m, err := e.repo.LockMember(ctx, memberID)
		if err != nil {
			return err
		}
		member = m

		p, err := e.repo.GetPassByMember(ctx, memberID)
		if errors.Is(err, models.ErrPassNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		pass = p

		// Уже списано сегодня или раньше.
		if today.Before(dateOf(p.DateOfNextPayment)) {
			return nil
		}
		// Абонемент закончился, его закроет сверка истечения.
		if p.Expired(now) {
			return nil
		}

		receipt, err := e.gateway.ChargeAndDescribe(ctx, memberID, p.MonthlyPrice)
		if errors.Is(err, models.ErrNoPaymentMethod) || errors.Is(err, models.ErrPaymentMethodExpired) {
			if err = e.deactivate(ctx, p, models.ReasonPaymentFailed, now); err != nil {
				return err
			}
			res = outcomeDeactivated
			return nil
		}
		if err != nil {
			return err
		}

		payment = newPayment(m, p.Title, p.MonthlyPrice, models.PaymentRecurring, receipt, now)
		if err = e.ledger.Record(ctx, payment); err != nil {
			return err
		}
		next = month.Next(dateOf(p.DateStart), dateOf(p.DateOfNextPayment))
		if err = e.repo.UpdateNextPayment(ctx, p.ID, next); err != nil {
			return err
		}
		res = outcomeCharged
		return nil
	})
	if err != nil {
		return outcomeSkipped, err
	}

	switch res {
	case outcomeCharged:
		e.afterCharge(ctx, member, pass, payment, next)
	case outcomeDeactivated:
		e.afterDeactivate(ctx, member, pass, models.ReasonPaymentFailed, now)
	}
	return res, nil
}

func (e *Engine) afterCharge(ctx context.Context, member *models.Member, pass *models.Pass, payment *models.Payment, next time.Time) {
	log := e.log.With(sl.Member(member.ID), slog.Int64("pass_id", pass.ID))
	log.Info("pass charged",
		slog.String("amount", payment.Amount.StringFixed(2)),
		slog.String("next_payment", next.Format(time.DateOnly)))

	e.evictPass(ctx, log, member.ID)
	e.metrics.IncPassCharged(payment.Amount)
	e.publish(ctx, log, routingCharged, &models.PassEvent{
		MemberID:  member.ID,
		Email:     member.Email,
		FirstName: member.FirstName,
		Title:     pass.Title,
		Amount:    payment.Amount,
		DateEnd:   pass.DateEnd,
		NextDate:  next,
		At:        payment.CreatedAt,
	})
}

// expireMember деактивирует абонемент участника, если dateEnd наступил.
func (e *Engine) expireMember(ctx context.Context, memberID int64, now time.Time) (outcome, error) {
	var (
		member *models.Member
		pass   *models.Pass
	)
	err := e.repo.InTx(ctx, func(ctx context.Context) error {
		pass = nil
		m, err := e.repo.LockMember(ctx, memberID)
		if err != nil {
			return err
		}
		member = m

		p, err := e.repo.GetPassByMember(ctx, memberID)
		if errors.Is(err, models.ErrPassNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !p.Expired(now) {
			return nil
		}
		if err = e.deactivate(ctx, p, models.ReasonExpired, now); err != nil {
			return err
		}
		pass = p
		return nil
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if pass == nil {
		return outcomeSkipped, nil
	}

	e.afterDeactivate(ctx, member, pass, models.ReasonExpired, now)
	return outcomeDeactivated, nil
}
