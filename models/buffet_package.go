package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BuffetPackage struct {
	PackageID      uint            `gorm:"primaryKey" json:"package_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	PricePerPerson decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_person"`
	Img            *string         `gorm:"type:varchar(255)" json:"img"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`

	Sessions     []TableSession `gorm:"foreignKey:PackageID;references:PackageID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	PackageItems []PackageItem  `gorm:"foreignKey:PackageID;references:PackageID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// PackageItem associates a menu item with a buffet package.
type PackageItem struct {
	PackageID uint `gorm:"primaryKey;autoIncrement:false" json:"package_id"`
	ItemID    uint `gorm:"primaryKey;autoIncrement:false" json:"item_id"`
}
