package models

import "github.com/shopspring/decimal"

// Offer описывает тарифное предложение, из которого создаётся абонемент.
type Offer struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	EntryFee       decimal.Decimal `json:"entry_fee"`
	DurationMonths int             `json:"duration_months"`
	IsActive       bool            `json:"is_active"`
}

// FirstCharge возвращает сумму первого списания: месячная цена плюс вступительный взнос.
func (o *Offer) FirstCharge() decimal.Decimal {
	return o.MonthlyPrice.Add(o.EntryFee)
}
