package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PassEvent сообщение о событии жизненного цикла абонемента, публикуемое в RabbitMQ.
type PassEvent struct {
	MemberID  int64              `json:"member_id"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name"`
	Title     string             `json:"title"`
	Amount    decimal.Decimal    `json:"amount,omitempty"`
	DateEnd   time.Time          `json:"date_end"`
	NextDate  time.Time          `json:"next_payment_date,omitempty"`
	Reason    DeactivationReason `json:"reason,omitempty"`
	At        time.Time          `json:"at"`
}
