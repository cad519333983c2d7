package models

import "time"

// TableSession is one occupancy of a table. The Table and Package pointers
// are filled by preloading only; the foreign keys of a session are declared
// on its parents (Table.Sessions, BuffetPackage.Sessions, Shift.Sessions).
type TableSession struct {
	SessionID         uint           `gorm:"primaryKey" json:"session_id"`
	TableID           uint           `gorm:"not null;index" json:"table_id"`
	Table             *Table         `gorm:"foreignKey:TableID;references:TableID;constraint:-" json:"table,omitempty"`
	StartTime         time.Time      `gorm:"not null" json:"start_time"`
	EndTime           *time.Time     `json:"end_time"`
	NumberOfCustomers int            `gorm:"not null" json:"number_of_customers"`
	PackageID         *uint          `gorm:"index" json:"package_id"`
	Package           *BuffetPackage `gorm:"foreignKey:PackageID;references:PackageID;constraint:-" json:"package,omitempty"`
	ShiftID           *uint          `gorm:"index" json:"shift_id"`

	// OpenTableID mirrors TableID while the session is open and is NULL once it
	// is closed. The unique index keeps a table to a single open session.
	OpenTableID *uint `gorm:"uniqueIndex" json:"-"`

	Orders  []Order  `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Payment *Payment `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsOpen reports whether the session has not been closed yet.
func (s TableSession) IsOpen() bool {
	return s.EndTime == nil
}
