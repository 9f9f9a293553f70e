package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pass представляет активный абонемент участника. У участника не больше одного абонемента.
// Цены копируются из Offer при создании и не меняются при последующей правке предложения.
type Pass struct {
	ID                int64           `json:"id"`
	MemberID          int64           `json:"member_id"`
	Title             string          `json:"title"`
	MonthlyPrice      decimal.Decimal `json:"monthly_price"`
	EntryFee          decimal.Decimal `json:"entry_fee"`
	DateStart         time.Time       `json:"date_start"`
	DateEnd           time.Time       `json:"date_end"`
	DateOfNextPayment time.Time       `json:"date_of_next_payment"` // только дата, без времени
}

// Expired сообщает, наступил ли dateEnd к моменту now.
func (p *Pass) Expired(now time.Time) bool {
	return !now.Before(p.DateEnd)
}

// DeactivationReason причина перевода абонемента в архив.
type DeactivationReason string

const (
	// ReasonPaymentFailed списание в очередном цикле невозможно
	ReasonPaymentFailed DeactivationReason = "payment_failed"
	// ReasonExpired наступила дата окончания абонемента
	ReasonExpired DeactivationReason = "expired"
)

// HistoricalPass неизменяемый снимок завершённого абонемента.
type HistoricalPass struct {
	ID           int64              `json:"id"`
	MemberID     int64              `json:"member_id"`
	Title        string             `json:"title"`
	MonthlyPrice decimal.Decimal    `json:"monthly_price"`
	EntryFee     decimal.Decimal    `json:"entry_fee"`
	DateStart    time.Time          `json:"date_start"`
	DateEnd      time.Time          `json:"date_end"`
	TerminatedAt time.Time          `json:"terminated_at"`
	Reason       DeactivationReason `json:"reason"`
}

// Snapshot строит архивную запись из текущего состояния абонемента.
func (p *Pass) Snapshot(terminatedAt time.Time, reason DeactivationReason) HistoricalPass {
	return HistoricalPass{
		MemberID:     p.MemberID,
		Title:        p.Title,
		MonthlyPrice: p.MonthlyPrice,
		EntryFee:     p.EntryFee,
		DateStart:    p.DateStart,
		DateEnd:      p.DateEnd,
		TerminatedAt: terminatedAt,
		Reason:       reason,
	}
}
