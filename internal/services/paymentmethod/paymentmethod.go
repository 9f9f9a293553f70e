// Package paymentmethod реализует шлюз сохранённых карт участников: проверку срока действия,
// имитацию списания по сохранённой карте и регистрацию новой карты.
package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-membership/internal/lib/card"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранилище карт.
type Repository interface {
	GetPaymentMethod(ctx context.Context, memberID int64) (*models.PaymentMethod, error)
	UpsertPaymentMethod(ctx context.Context, pm *models.PaymentMethod) error
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)
}

// Gateway работает с картой, сохранённой за участником.
type Gateway struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создает Gateway.
func New(repo Repository, log *slog.Logger) *Gateway {
	return &Gateway{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock подменяет источник текущего времени.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// IsExpired сообщает, истекла ли карта с указанным сроком к моменту now.
func IsExpired(month, year int, now time.Time) bool {
	return card.Expired(month, year, now)
}

// HasMethod сообщает, сохранена ли у участника карта.
func (g *Gateway) HasMethod(ctx context.Context, memberID int64) (bool, error) {
	_, err := g.repo.GetPaymentMethod(ctx, memberID)
	if errors.Is(err, models.ErrNoPaymentMethod) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ChargeAndDescribe списывает amount с сохранённой карты участника и возвращает её маскированное описание.
// Списание имитируется по сохранённой записи: успешно, если карта есть и не истекла.
func (g *Gateway) ChargeAndDescribe(ctx context.Context, memberID int64, amount decimal.Decimal) (*models.ChargeReceipt, error) {
	const op = "paymentmethod.ChargeAndDescribe"
	log := g.log.With(slog.String("op", op), sl.Member(memberID))

	if amount.IsNegative() {
		return nil, fmt.Errorf("%s: negative amount %s", op, amount)
	}

	pm, err := g.repo.GetPaymentMethod(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if IsExpired(pm.ExpirationMonth, pm.ExpirationYear, g.now()) {
		log.Info("payment method expired",
			slog.Int("expiration_month", pm.ExpirationMonth),
			slog.Int("expiration_year", pm.ExpirationYear))
		return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentMethodExpired)
	}

	log.Debug("charged stored card", slog.String("amount", amount.StringFixed(2)))
	return &models.ChargeReceipt{
		CardNumberMasked: card.Mask(pm.CardNumber),
		ExpirationMonth:  pm.ExpirationMonth,
		ExpirationYear:   pm.ExpirationYear,
	}, nil
}

// Register проверяет номер и срок действия (MM/YY) карты и сохраняет её, заменяя прежнюю.
func (g *Gateway) Register(ctx context.Context, memberID int64, number, expiration string) (*models.ChargeReceipt, error) {
	const op = "paymentmethod.Register"

	if !card.Valid(number) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCard)
	}
	month, year, err := card.ParseExpiration(expiration)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, models.ErrInvalidCard, err.Error())
	}
	if IsExpired(month, year, g.now()) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentMethodExpired)
	}
	if _, err = g.repo.GetMember(ctx, memberID); err != nil {
		return nil, err
	}

	pm := &models.PaymentMethod{
		MemberID:        memberID,
		CardNumber:      card.Normalize(number),
		ExpirationMonth: month,
		ExpirationYear:  year,
	}
	if err = g.repo.UpsertPaymentMethod(ctx, pm); err != nil {
		return nil, err
	}

	g.log.Info("payment method registered", sl.Member(memberID))
	return &models.ChargeReceipt{
		CardNumberMasked: card.Mask(pm.CardNumber),
		ExpirationMonth:  month,
		ExpirationYear:   year,
	}, nil
}
