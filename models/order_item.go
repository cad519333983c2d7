package models

// Order item statuses
const (
	OrderItemStatusOrdered = "ordered"
	OrderItemStatusServed  = "served"
)

type OrderItem struct {
	OrderItemID uint      `gorm:"primaryKey" json:"order_item_id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ItemID      uint      `gorm:"not null;index" json:"item_id"`
	MenuItem    *MenuItem `gorm:"foreignKey:ItemID;references:ItemID;constraint:-" json:"menu_item,omitempty"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	Status      string    `gorm:"type:varchar(20);default:'ordered'" json:"status"`
}

// CurrentStatus returns the item status, treating an unset value as ordered.
func (oi OrderItem) CurrentStatus() string {
	if oi.Status == "" {
		return OrderItemStatusOrdered
	}
	return oi.Status
}
