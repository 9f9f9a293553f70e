// Package payment реализует журнал платежей: запись успешных списаний,
// выдачу истории участнику и выгрузку истории в XLSX.
package payment

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранилище журнала платежей.
type Repository interface {
	SavePayment(ctx context.Context, p *models.Payment) (int64, error)
	ListPayments(ctx context.Context, memberID int64) ([]*models.Payment, error)
}

// Ledger журнал платежей. Записи только добавляются.
type Ledger struct {
	repo Repository
	log  *slog.Logger
}

// NewLedger создает Ledger.
func NewLedger(repo Repository, log *slog.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Record добавляет платёж. Если у платежа нет TransactionID, он генерируется.
func (l *Ledger) Record(ctx context.Context, p *models.Payment) error {
	if p.TransactionID == uuid.Nil {
		p.TransactionID = uuid.New()
	}
	id, err := l.repo.SavePayment(ctx, p)
	if err != nil {
		return err
	}
	p.ID = id
	l.log.Debug("payment recorded", sl.Member(p.MemberID),
		slog.String("transaction_id", p.TransactionID.String()),
		slog.String("amount", p.Amount.StringFixed(2)),
		slog.String("kind", string(p.Kind)))
	return nil
}

// ListPayments возвращает историю платежей участника, новые первыми.
func (l *Ledger) ListPayments(ctx context.Context, memberID int64) ([]*models.Payment, error) {
	return l.repo.ListPayments(ctx, memberID)
}

var exportHeader = []any{
	"transaction_id", "date", "pass", "kind", "amount", "card", "payer", "email",
}

// ExportPayments выгружает историю платежей участника в книгу XLSX.
func (l *Ledger) ExportPayments(ctx context.Context, memberID int64) ([]byte, error) {
	const op = "payment.ExportPayments"

	payments, err := l.repo.ListPayments(ctx, memberID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err = f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("%s: header: %w", op, err)
	}

	for i, p := range payments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		row := []any{
			p.TransactionID.String(),
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.PassTitle,
			string(p.Kind),
			p.Amount.InexactFloat64(),
			p.CardNumberMasked,
			p.PayerFirstName + " " + p.PayerLastName,
			p.PayerEmail,
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err = f.Write(buf); err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}
	return buf.Bytes(), nil
}
