package models

import (
	"time"
)

// Order statuses. The order status is derived from its items and is never
// set directly by callers.
const (
	OrderStatusOrdered    = "ordered"
	OrderStatusInProgress = "in_progress"
	OrderStatusServed     = "served"
)

type Order struct {
	OrderID   uint          `gorm:"primaryKey" json:"order_id"`
	SessionID uint          `gorm:"not null;index" json:"session_id"`
	Session   *TableSession `gorm:"foreignKey:SessionID;references:SessionID;constraint:-" json:"-"`
	OrderTime time.Time     `gorm:"not null" json:"order_time"`
	Status    string        `gorm:"type:varchar(20);not null;default:'ordered'" json:"status"`
	Items     []OrderItem   `gorm:"foreignKey:OrderID;references:OrderID" json:"items"`
}
