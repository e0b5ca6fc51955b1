package model

import "time"

const (
	CreditTxKindReserve = "RESERVE"
	CreditTxKindRefund  = "REFUND"
	CreditTxKindSpend   = "SPEND"
)

type CreditAccount struct {
	UserID    string    `gorm:"primaryKey;column:user_id;type:varchar(64);<-:create"`
	Available int64     `gorm:"column:available;not null"`
	Reserved  int64     `gorm:"column:reserved;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// CreditTransaction is append-only. Every balance mutation records the
// before/after snapshot of both buckets for audit.
type CreditTransaction struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;<-:create"`
	UserID       string    `gorm:"type:varchar(64);not null;index;<-:create"`
	MessageID    *string   `gorm:"type:varchar(36);<-:create"`
	Kind         string    `gorm:"type:enum('RESERVE','REFUND','SPEND');not null;<-:create"`
	Amount       int64     `gorm:"not null;<-:create"`
	OldAvailable int64     `gorm:"column:old_available;not null;<-:create"`
	NewAvailable int64     `gorm:"column:new_available;not null;<-:create"`
	OldReserved  int64     `gorm:"column:old_reserved;not null;<-:create"`
	NewReserved  int64     `gorm:"column:new_reserved;not null;<-:create"`
	Reason       string    `gorm:"type:varchar(255);<-:create"`
	CreatedAt    time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
}
