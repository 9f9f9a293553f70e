package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod сохранённая карта участника. Номер хранится как непрозрачная строка,
// шифрование выполняется за пределами этого сервиса.
type PaymentMethod struct {
	MemberID        int64  `json:"member_id"`
	CardNumber      string `json:"-"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"` // четыре цифры
}

// ChargeReceipt результат успешного списания через PaymentMethodGateway.
type ChargeReceipt struct {
	CardNumberMasked string
	ExpirationMonth  int
	ExpirationYear   int
}

// PaymentKind тип списания.
type PaymentKind string

const (
	// PaymentInitial первое списание при покупке абонемента (цена + вступительный взнос)
	PaymentInitial PaymentKind = "initial"
	// PaymentRecurring ежемесячное списание
	PaymentRecurring PaymentKind = "recurring"
)

// Payment неизменяемая запись журнала платежей.
type Payment struct {
	ID               int64           `json:"id"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
	MemberID         int64           `json:"member_id"`
	PassTitle        string          `json:"pass_title"`
	Amount           decimal.Decimal `json:"amount"`
	Kind             PaymentKind     `json:"kind"`
	CardNumberMasked string          `json:"card_number_masked"`
	ExpirationMonth  int             `json:"expiration_month"`
	ExpirationYear   int             `json:"expiration_year"`
	PayerFirstName   string          `json:"payer_first_name"`
	PayerLastName    string          `json:"payer_last_name"`
	PayerEmail       string          `json:"payer_email"`
	CreatedAt        time.Time       `json:"created_at"`
}
