package model

import "time"

// Preference is one key/value entry of the device's non-volatile storage.
type Preference struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
