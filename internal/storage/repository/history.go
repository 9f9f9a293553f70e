package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// SaveHistoricalPass добавляет снимок завершённого абонемента в архив.
func (s *Storage) SaveHistoricalPass(ctx context.Context, h *models.HistoricalPass) (int64, error) {
	const op = "storage.SaveHistoricalPass"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO historical_passes
		(member_id, title, monthly_price, entry_fee, date_start, date_end, terminated_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int64
	err := s.conn(ctx).QueryRowContext(ctx, query,
		h.MemberID, h.Title, h.MonthlyPrice, h.EntryFee,
		h.DateStart, h.DateEnd, h.TerminatedAt, string(h.Reason)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListHistoricalPasses возвращает архив участника, новые записи первыми.
func (s *Storage) ListHistoricalPasses(ctx context.Context, memberID int64) ([]*models.HistoricalPass, error) {
	const op = "storage.ListHistoricalPasses"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, member_id, title, monthly_price, entry_fee, date_start, date_end, terminated_at, reason
		 FROM historical_passes WHERE member_id = $1
		 ORDER BY terminated_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.HistoricalPass, 0)
	for rows.Next() {
		var h models.HistoricalPass
		var reason string
		if err := rows.Scan(&h.ID, &h.MemberID, &h.Title, &h.MonthlyPrice, &h.EntryFee,
			&h.DateStart, &h.DateEnd, &h.TerminatedAt, &reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		h.Reason = models.DeactivationReason(reason)
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
