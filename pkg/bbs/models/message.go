package models

import "time"

// PrivateMessage is a direct message between two registered users.
type PrivateMessage struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Sender   string    `gorm:"not null;size:255" json:"sender"`
	Receiver string    `gorm:"not null;index;size:255" json:"receiver"`
	Body     string    `gorm:"not null" json:"body"`
	SentAt   time.Time `gorm:"not null;index" json:"sent_at"`
	Read     bool      `gorm:"not null;default:false" json:"read"`
}

// TableName returns the table name for PrivateMessage.
func (PrivateMessage) TableName() string {
	return "private_messages"
}
