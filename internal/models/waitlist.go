package models

import "time"

// WaitlistSignup is an email captured by the waitlist form. Rows are insert-only.
type WaitlistSignup struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Source    string    `gorm:"type:varchar(64);not null;default:landing"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (WaitlistSignup) TableName() string {
	return "waitlist_signups"
}
