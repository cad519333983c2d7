package models

import "time"

// ShiftDuration is the fixed length of every work shift.
const ShiftDuration = 6 * time.Hour

type Shift struct {
	ShiftID    uint      `gorm:"primaryKey" json:"shift_id"`
	StartTime  time.Time `gorm:"not null;uniqueIndex" json:"start_time"`
	EndTime    time.Time `gorm:"not null" json:"end_time"`
	SecretCode string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"-"`

	Sessions []TableSession `gorm:"foreignKey:ShiftID;references:ShiftID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// NewShift builds a shift starting at start with the end time derived from ShiftDuration.
func NewShift(start time.Time, secretCode string) Shift {
	return Shift{
		StartTime:  start,
		EndTime:    start.Add(ShiftDuration),
		SecretCode: secretCode,
	}
}

// Contains reports whether t falls inside the half-open window [StartTime, EndTime).
func (s Shift) Contains(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}
