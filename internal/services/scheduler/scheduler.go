// Package scheduler периодически запускает сверки абонементов: ежемесячные списания
// и деактивацию истёкших абонементов.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/services/subscription"
)

// Sweeper сверки абонементов.
type Sweeper interface {
	ChargeForActivePasses(ctx context.Context) subscription.SweepReport
	DeactivateExpiredPasses(ctx context.Context) subscription.SweepReport
}

// Locker распределённая блокировка между репликами планировщика.
type Locker interface {
	AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// SchedulerService запускает сверки по таймеру.
type SchedulerService struct {
	sweeper Sweeper
	locker  Locker
	lockTTL time.Duration
	log     *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(sweeper Sweeper, locker Locker, lockTTL time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		sweeper: sweeper,
		locker:  locker,
		lockTTL: lockTTL,
		log:     log,
	}
}

// RunCharge запускает сверку списаний сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) RunCharge(ctx context.Context, interval time.Duration) error {
	return s.loop(ctx, subscription.SweepCharge, interval, s.sweeper.ChargeForActivePasses)
}

// RunExpiration запускает сверку истечения сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) RunExpiration(ctx context.Context, interval time.Duration) error {
	return s.loop(ctx, subscription.SweepExpiration, interval, s.sweeper.DeactivateExpiredPasses)
}

func (s *SchedulerService) loop(ctx context.Context, name string, interval time.Duration,
	sweep func(context.Context) subscription.SweepReport) error {
	log := s.log.With(slog.String("sweep", name))
	log.Info("starting sweep loop", slog.Duration("interval", interval))

	s.RunOnce(ctx, name, sweep)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("sweep loop stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx, name, sweep)
		}
	}
}

// RunOnce выполняет сверку под блокировкой name. Если блокировку держит другая реплика,
// сверка пропускается и возвращается false. Если хранилище блокировок недоступно,
// сверка всё равно выполняется: повторная обработка абонемента в тот же день ничего не меняет.
func (s *SchedulerService) RunOnce(ctx context.Context, name string,
	sweep func(context.Context) subscription.SweepReport) (subscription.SweepReport, bool) {
	log := s.log.With(slog.String("sweep", name))
	token := uuid.NewString()

	acquired, err := s.locker.AcquireLock(ctx, name, token, s.lockTTL)
	switch {
	case err != nil:
		log.Warn("failed to acquire sweep lock, running without it", sl.Err(err))
	case !acquired:
		log.Info("sweep is running on another replica, skipping")
		return subscription.SweepReport{Sweep: name}, false
	default:
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), name, token); err != nil {
				log.Warn("failed to release sweep lock", sl.Err(err))
			}
		}()
	}

	report := sweep(ctx)
	if report.Err != nil {
		log.Error("sweep finished with errors", slog.Int("failed", report.Failed), sl.Err(report.Err))
	}
	return report, true
}
