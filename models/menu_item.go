package models

import "time"

type MenuItem struct {
	ItemID    uint      `gorm:"primaryKey" json:"item_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Category  string    `gorm:"type:text" json:"category"`
	Available bool      `gorm:"not null" json:"available"`
	Img       *string   `gorm:"type:varchar(255)" json:"img"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	OrderItems   []OrderItem   `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PackageItems []PackageItem `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
