package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// GetPaymentMethod возвращает сохранённую карту участника или ErrNoPaymentMethod.
func (s *Storage) GetPaymentMethod(ctx context.Context, memberID int64) (*models.PaymentMethod, error) {
	const op = "storage.GetPaymentMethod"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var pm models.PaymentMethod
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT member_id, card_number, expiration_month, expiration_year
		 FROM payment_methods WHERE member_id = $1`, memberID).
		Scan(&pm.MemberID, &pm.CardNumber, &pm.ExpirationMonth, &pm.ExpirationYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNoPaymentMethod)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &pm, nil
}

// UpsertPaymentMethod сохраняет или заменяет карту участника.
func (s *Storage) UpsertPaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	const op = "storage.UpsertPaymentMethod"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO payment_methods (member_id, card_number, expiration_month, expiration_year)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (member_id) DO UPDATE
		 SET card_number = EXCLUDED.card_number,
		     expiration_month = EXCLUDED.expiration_month,
		     expiration_year = EXCLUDED.expiration_year,
		     updated_at = NOW()`,
		pm.MemberID, pm.CardNumber, pm.ExpirationMonth, pm.ExpirationYear)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
