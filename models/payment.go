package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records the settlement of a closed table session. A session has at
// most one payment and payments are never updated once written.
type Payment struct {
	PaymentID     uint            `gorm:"primaryKey" json:"payment_id"`
	SessionID     uint            `gorm:"not null;uniqueIndex" json:"session_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentTime   time.Time       `gorm:"not null;index" json:"payment_time"`
	PaymentMethod string          `gorm:"type:varchar(50)" json:"payment_method"`
}
