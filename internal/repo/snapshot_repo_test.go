package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/domain"
)

func newSnapshotDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("snapshot_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func sampleEligibility() *domain.BadgeEligibility {
	return &domain.BadgeEligibility{
		CustomBadges: []domain.CustomBadge{{Name: "X", ImageURL: "u"}},
		Legacy:       domain.LegacyCommunityFlags{Aliucord: domain.AliucordFlags{Donor: true}},
		DynamicCommunityBadges: map[string]*domain.DynamicBadge{
			domain.SlotSupporter: {Label: "Supporter", ImageURLDark: "d", ImageURLLight: "l"},
		},
		CutieList: []domain.LabeledImage{{Label: "c", ImageURL: "i"}},
	}
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(newSnapshotDB(t))
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := s.Save(ctx, badges.Entry{UserID: "u1", Eligibility: sampleEligibility(), FetchedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.LoadSince(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("LoadSince: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d; want 1", len(got))
	}
	e := got[0]
	if e.UserID != "u1" || !e.FetchedAt.Equal(now) {
		t.Fatalf("entry = %#v", e)
	}
	if len(e.Eligibility.CustomBadges) != 1 || !e.Eligibility.Legacy.Aliucord.Donor {
		t.Fatalf("eligibility = %#v", e.Eligibility)
	}
	if s := e.Eligibility.DynamicCommunityBadges[domain.SlotSupporter]; s == nil || s.ImageURLDark != "d" {
		t.Fatalf("supporter slot = %#v", s)
	}
}

func TestSnapshotStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	db := newSnapshotDB(t)
	s := NewSnapshotStore(db)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, badges.Entry{UserID: "u1", Eligibility: sampleEligibility(), FetchedAt: t0}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, badges.Entry{UserID: "u1", FetchedAt: t0.Add(time.Minute)}); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	var n int64
	db.Model(&domain.EligibilitySnapshot{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d; want 1", n)
	}
	got, _ := s.LoadSince(ctx, t0)
	if len(got) != 1 || !got[0].FetchedAt.Equal(t0.Add(time.Minute)) || !got[0].Eligibility.IsEmpty() {
		t.Fatalf("upsert did not overwrite: %#v", got)
	}
}

func TestSnapshotStore_LoadSince_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(newSnapshotDB(t))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Hour)
		if err := s.Save(ctx, badges.Entry{UserID: id, Eligibility: &domain.BadgeEligibility{}, FetchedAt: at}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	got, err := s.LoadSince(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("LoadSince: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "mid" || got[1].UserID != "new" {
		t.Fatalf("got %#v", got)
	}
}

func TestSnapshotStore_LoadSince_SkipsCorruptPayload(t *testing.T) {
	ctx := context.Background()
	db := newSnapshotDB(t)
	s := NewSnapshotStore(db)
	now := time.Now().UTC()

	if err := db.Create(&domain.EligibilitySnapshot{UserID: "bad", Payload: "{not json", FetchedAt: now}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Save(ctx, badges.Entry{UserID: "good", Eligibility: sampleEligibility(), FetchedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.LoadSince(ctx, now.Add(-time.Second))
	if err != nil {
		t.Fatalf("LoadSince: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "good" {
		t.Fatalf("got %#v", got)
	}
}

func TestSnapshotStore_DeleteAndPrune(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(newSnapshotDB(t))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_ = s.Save(ctx, badges.Entry{UserID: id, FetchedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	if err := s.Delete(ctx, "c"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	n, err := s.Prune(ctx, base.Add(30*time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v; want 1", n, err)
	}

	got, _ := s.LoadSince(ctx, time.Time{})
	if len(got) != 1 || got[0].UserID != "b" {
		t.Fatalf("remaining = %#v", got)
	}
}

func TestSnapshotStore_WarmsCache(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(newSnapshotDB(t))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = s.Save(ctx, badges.Entry{UserID: "fresh", Eligibility: sampleEligibility(), FetchedAt: now.Add(-10 * time.Minute)})
	_ = s.Save(ctx, badges.Entry{UserID: "stale", Eligibility: sampleEligibility(), FetchedAt: now.Add(-2 * time.Hour)})

	fetcher := badges.FetcherFunc(func(context.Context, string) (*domain.BadgeEligibility, error) {
		t.Fatalf("warm cache must not fetch")
		return nil, nil
	})
	c := badges.NewCache(fetcher, badges.WithStore(s), badges.WithClock(func() time.Time { return now }))

	n, err := c.Warm(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Warm = %d, %v; want 1", n, err)
	}
	if got := c.GetOrRefresh(ctx, "fresh"); got == nil || !got.Legacy.Aliucord.Donor {
		t.Fatalf("warmed entry = %#v", got)
	}
}
