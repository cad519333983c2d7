package models

import "time"

// Table statuses
const (
	TableStatusReady    = "ready"
	TableStatusEating   = "eating"
	TableStatusCleaning = "cleaning"
)

type Table struct {
	TableID     uint      `gorm:"primaryKey" json:"table_id"`
	TableNumber string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Status      string    `gorm:"type:varchar(20);not null;default:'ready'" json:"status"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	Sessions []TableSession `gorm:"foreignKey:TableID;references:TableID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
