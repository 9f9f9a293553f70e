// Package subscription реализует жизненный цикл абонемента: покупку, ежемесячные списания,
// истечение срока и деактивацию с архивированием и отменой будущих записей на занятия.
//
// Все изменения по участнику выполняются в транзакции, которая начинается с блокировки
// строки участника. Поэтому покупка, списание и деактивация для одного участника не пересекаются,
// а платёж, архивная запись, отмена записей и удаление абонемента фиксируются вместе.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранилище абонементов и архива.
type Repository interface {
	// InTx выполняет fn в транзакции; вложенные вызовы используют внешнюю транзакцию.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockMember блокирует участника до конца транзакции.
	LockMember(ctx context.Context, memberID int64) (*models.Member, error)
	GetPassByMember(ctx context.Context, memberID int64) (*models.Pass, error)
	CreatePass(ctx context.Context, pass *models.Pass) (int64, error)
	UpdateNextPayment(ctx context.Context, passID int64, next time.Time) error
	DeletePass(ctx context.Context, passID int64) error
	SaveHistoricalPass(ctx context.Context, h *models.HistoricalPass) (int64, error)
	ListHistoricalPasses(ctx context.Context, memberID int64) ([]*models.HistoricalPass, error)
	ListMembersDueForPayment(ctx context.Context, today time.Time) ([]int64, error)
	ListMembersWithExpiredPass(ctx context.Context, now time.Time) ([]int64, error)
}

// PaymentGateway списание с сохранённой карты.
type PaymentGateway interface {
	ChargeAndDescribe(ctx context.Context, memberID int64, amount decimal.Decimal) (*models.ChargeReceipt, error)
}

// OfferCatalog разрешение предложения в цены.
type OfferCatalog interface {
	Resolve(ctx context.Context, offerID int64) (*models.Offer, error)
}

// Ledger журнал платежей.
type Ledger interface {
	Record(ctx context.Context, p *models.Payment) error
}

// EnrollmentCanceller отмена будущих записей участника на занятия.
type EnrollmentCanceller interface {
	CancelFutureEnrollments(ctx context.Context, memberID int64, now time.Time) (int, error)
}

// Cache кэш активных абонементов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикация событий абонемента.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Metrics метрики абонементов.
type Metrics interface {
	IncPassCreated()
	IncPassCharged(amount decimal.Decimal)
	IncPassDeactivated(reason string)
	ObserveSweep(sweep string, d time.Duration, failed int)
}

// Deps зависимости Engine.
type Deps struct {
	Repo        Repository
	Gateway     PaymentGateway
	Offers      OfferCatalog
	Ledger      Ledger
	Enrollments EnrollmentCanceller
	Cache       Cache
	Publisher   EventPublisher
	Metrics     Metrics
}

// Engine управляет абонементами участников.
type Engine struct {
	repo        Repository
	gateway     PaymentGateway
	offers      OfferCatalog
	ledger      Ledger
	enrollments EnrollmentCanceller
	cache       Cache
	publisher   EventPublisher
	metrics     Metrics
	log         *slog.Logger

	now      func() time.Time
	workers  int
	cacheTTL time.Duration
}

// New создает Engine. workers ограничивает число абонементов, обрабатываемых сверкой одновременно.
func New(deps Deps, log *slog.Logger, workers int, cacheTTL time.Duration) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		repo:        deps.Repo,
		gateway:     deps.Gateway,
		offers:      deps.Offers,
		ledger:      deps.Ledger,
		enrollments: deps.Enrollments,
		cache:       deps.Cache,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		workers:     workers,
		cacheTTL:    cacheTTL,
	}
}

// WithClock подменяет источник текущего времени.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

const (
	evictRetries = 3
	evictBackoff = 20 * time.Millisecond
)

func passCacheKey(memberID int64) string {
	return fmt.Sprintf("pass:member:%d", memberID)
}

// evictPass удаляет абонемент участника из кэша, повторяя попытку при ошибке Redis.
func (e *Engine) evictPass(ctx context.Context, log *slog.Logger, memberID int64) {
	backoff := retry.WithMaxRetries(evictRetries, retry.NewExponential(evictBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := e.cache.Invalidate(ctx, passCacheKey(memberID)); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to invalidate pass cache", sl.Err(err))
	}
}

// CreatePass продаёт участнику абонемент по предложению offerID. Первое списание
// (месячная цена плюс вступительный взнос), запись в журнал и создание абонемента
// выполняются в одной транзакции: если списание не прошло, не остаётся ни платежа, ни абонемента.
func (e *Engine) CreatePass(ctx context.Context, memberID, offerID int64) (*models.Pass, error) {
	const op = "subscription.CreatePass"
	log := e.log.With(slog.String("op", op), sl.Member(memberID), slog.Int64("offer_id", offerID))

	var (
		pass    *models.Pass
		member  *models.Member
		payment *models.Payment
	)
	err := e.repo.InTx(ctx, func(ctx context.Context) error {
		m, err := e.repo.LockMember(ctx, memberID)
		if err != nil {
			return err
		}
		member = m

		_, err = e.repo.GetPassByMember(ctx, memberID)
		switch {
		case err == nil:
			return fmt.Errorf("%s: %w", op, models.ErrPassAlreadyExists)
		case !errors.Is(err, models.ErrPassNotFound):
			return err
		}

		offer, err := e.offers.Resolve(ctx, offerID)
		if err != nil {
			return err
		}

		amount := offer.FirstCharge()
		receipt, err := e.gateway.ChargeAndDescribe(ctx, memberID, amount)
		if err != nil {
			return err
		}

		now := e.now()
		p := newPass(memberID, offer, now)
		payment = newPayment(member, p.Title, amount, models.PaymentInitial, receipt, now)
		if err = e.ledger.Record(ctx, payment); err != nil {
			return err
		}

		id, err := e.repo.CreatePass(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		pass = p
		return nil
	})
	if err != nil {
		log.Info("pass not created", sl.Err(err))
		return nil, err
	}

	log.Info("pass created",
		slog.Int64("pass_id", pass.ID),
		slog.String("amount", payment.Amount.StringFixed(2)),
		slog.Time("date_end", pass.DateEnd))

	e.evictPass(ctx, log, memberID)
	e.metrics.IncPassCreated()
	e.publish(ctx, log, routingCreated, &models.PassEvent{
		MemberID:  memberID,
		Email:     member.Email,
		FirstName: member.FirstName,
		Title:     pass.Title,
		Amount:    payment.Amount,
		DateEnd:   pass.DateEnd,
		NextDate:  pass.DateOfNextPayment,
		At:        pass.DateStart,
	})
	return pass, nil
}

// newPass строит абонемент, купленный в момент now: цены копируются из предложения,
// dateEnd = now + срок, первое ежемесячное списание через месяц.
func newPass(memberID int64, offer *models.Offer, now time.Time) *models.Pass {
	return &models.Pass{
		MemberID:          memberID,
		Title:             offer.Title,
		MonthlyPrice:      offer.MonthlyPrice,
		EntryFee:          offer.EntryFee,
		DateStart:         now,
		DateEnd:           month.AddMonths(now, offer.DurationMonths),
		DateOfNextPayment: month.AddMonths(dateOf(now), 1),
	}
}

func newPayment(member *models.Member, title string, amount decimal.Decimal, kind models.PaymentKind,
	receipt *models.ChargeReceipt, now time.Time) *models.Payment {
	return &models.Payment{
		MemberID:         member.ID,
		PassTitle:        title,
		Amount:           amount,
		Kind:             kind,
		CardNumberMasked: receipt.CardNumberMasked,
		ExpirationMonth:  receipt.ExpirationMonth,
		ExpirationYear:   receipt.ExpirationYear,
		PayerFirstName:   member.FirstName,
		PayerLastName:    member.LastName,
		PayerEmail:       member.Email,
		CreatedAt:        now,
	}
}

// dateOf отбрасывает время, оставляя календарную дату в UTC.
func dateOf(t time.Time) time.Time {
	return month.Day(t.UTC())
}

// GetActivePass возвращает абонемент участника, сначала из кэша. Если абонемента нет, ErrPassNotFound.
// Кэш заполняется только в транзакции под блокировкой участника.
func (e *Engine) GetActivePass(ctx context.Context, memberID int64) (*models.Pass, error) {
	const op = "subscription.GetActivePass"
	log := e.log.With(slog.String("op", op), sl.Member(memberID))

	key := passCacheKey(memberID)
	var cached models.Pass
	found, err := e.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("failed to read pass from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	var pass *models.Pass
	err = e.repo.InTx(ctx, func(ctx context.Context) error {
		if _, err := e.repo.LockMember(ctx, memberID); err != nil {
			return err
		}
		p, err := e.repo.GetPassByMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := e.cache.Set(ctx, key, p, e.cacheTTL); err != nil {
			log.Warn("failed to cache pass", sl.Err(err))
		}
		pass = p
		return nil
	})
	if errors.Is(err, models.ErrMemberNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPassNotFound)
	}
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// GetPassHistory возвращает завершённые абонементы участника, новые первыми.
func (e *Engine) GetPassHistory(ctx context.Context, memberID int64) ([]*models.HistoricalPass, error) {
	return e.repo.ListHistoricalPasses(ctx, memberID)
}
