package domain

import "time"

// EligibilitySnapshot is the persisted form of a cache entry. Payload holds
// the JSON encoding of a BadgeEligibility; FetchedAt is the instant the API
// answered, so TTL freshness survives a restart.
type EligibilitySnapshot struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey"`
	Payload   string    `gorm:"type:TEXT NOT NULL"`
	FetchedAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (EligibilitySnapshot) TableName() string { return "eligibility_snapshots" }
