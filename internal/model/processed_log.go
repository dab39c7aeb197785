package model

import "time"

// ProcessedLog marks a journal file whose events have been fully applied.
type ProcessedLog struct {
	FileName    string    `gorm:"primaryKey;size:255"`
	ProcessedAt time.Time `gorm:"not null;index"`
}
