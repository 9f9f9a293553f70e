package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// SavePayment добавляет запись в журнал платежей. Журнал только пополняется.
func (s *Storage) SavePayment(ctx context.Context, p *models.Payment) (int64, error) {
	const op = "storage.SavePayment"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO payments
		(transaction_id, member_id, pass_title, amount, kind, card_number_masked,
		 expiration_month, expiration_year, payer_first_name, payer_last_name, payer_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	var id int64
	err := s.conn(ctx).QueryRowContext(ctx, query,
		p.TransactionID, p.MemberID, p.PassTitle, p.Amount, string(p.Kind), p.CardNumberMasked,
		p.ExpirationMonth, p.ExpirationYear, p.PayerFirstName, p.PayerLastName, p.PayerEmail,
		p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListPayments возвращает платежи участника, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, memberID int64) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, transaction_id, member_id, pass_title, amount, kind, card_number_masked,
		        expiration_month, expiration_year, payer_first_name, payer_last_name, payer_email, created_at
		 FROM payments WHERE member_id = $1
		 ORDER BY created_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		var kind string
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.MemberID, &p.PassTitle, &p.Amount, &kind,
			&p.CardNumberMasked, &p.ExpirationMonth, &p.ExpirationYear,
			&p.PayerFirstName, &p.PayerLastName, &p.PayerEmail, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Kind = models.PaymentKind(kind)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
