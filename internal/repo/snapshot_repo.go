// Package repo – snapshot repository
//
// SnapshotStore persists badge cache entries so a restarted process can warm
// its cache instead of refetching every user. Rows are keyed by user id and
// overwritten on every successful fetch; a failed fetch deletes the row.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/domain"
)

// SnapshotStore implements badges.SnapshotStore on GORM.
type SnapshotStore struct {
	db *gorm.DB
}

var _ badges.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore returns a store on db. The table must exist (AutoMigrate).
func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save upserts the entry for e.UserID.
func (s *SnapshotStore) Save(ctx context.Context, e badges.Entry) error {
	elig := e.Eligibility
	if elig == nil {
		elig = &domain.BadgeEligibility{}
	}
	payload, err := json.Marshal(elig)
	if err != nil {
		return fmt.Errorf("repo: encode snapshot for %s: %w", e.UserID, err)
	}
	row := domain.EligibilitySnapshot{
		UserID:    e.UserID,
		Payload:   string(payload),
		FetchedAt: e.FetchedAt.UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
		}).
		Create(&row).Error
}

// Delete removes the entry for userID. Deleting a missing row is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.EligibilitySnapshot{}).Error
}

// LoadSince returns entries fetched at or after since, oldest first. Rows
// whose payload no longer decodes are skipped.
func (s *SnapshotStore) LoadSince(ctx context.Context, since time.Time) ([]badges.Entry, error) {
	var rows []domain.EligibilitySnapshot
	err := s.db.WithContext(ctx).
		Where("fetched_at >= ?", since.UTC()).
		Order("fetched_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]badges.Entry, 0, len(rows))
	for _, r := range rows {
		var elig domain.BadgeEligibility
		if err := json.Unmarshal([]byte(r.Payload), &elig); err != nil {
			continue
		}
		out = append(out, badges.Entry{UserID: r.UserID, Eligibility: &elig, FetchedAt: r.FetchedAt})
	}
	return out, nil
}

// Prune deletes entries fetched before cutoff and returns how many went.
func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("fetched_at < ?", cutoff.UTC()).
		Delete(&domain.EligibilitySnapshot{})
	return res.RowsAffected, res.Error
}
