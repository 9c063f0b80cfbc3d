package postgres

import "time"

// CachedResult is one cached resolution, stored as a msgpack payload
type CachedResult struct {
	Key       string `gorm:"primaryKey;size:255"`
	Payload   []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's Tabler
func (CachedResult) TableName() string {
	return "cached_results"
}
