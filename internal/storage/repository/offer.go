package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// GetOffer возвращает предложение по id, в том числе неактивное.
func (s *Storage) GetOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	const op = "storage.GetOffer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var o models.Offer
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, title, monthly_price, entry_fee, duration_months, is_active
		 FROM offers WHERE id = $1`, offerID).
		Scan(&o.ID, &o.Title, &o.MonthlyPrice, &o.EntryFee, &o.DurationMonths, &o.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrOfferNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &o, nil
}
