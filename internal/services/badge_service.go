// Package services – BadgeService
//
// This file implements the BadgeService, which serves the badges of one
// user. It validates user ids, asks the cache for a fresh eligibility record,
// composes the ordered badge requests and renders them through the registry.
//
// Fetch failures never surface here: a user whose record could not be
// fetched simply has no badges for this cycle.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/domain"
	"github.com/tbourn/go-profile-badges/internal/integration"
	"github.com/tbourn/go-profile-badges/internal/registry"
)

// MaxUserIDLen caps user ids in bytes.
const MaxUserIDLen = 64

var invalidIDChars = regexp.MustCompile(`[\s\p{C}]`)

// BadgeCache is the cache contract required by BadgeService.
type BadgeCache interface {
	// GetOrRefresh returns a fresh record, fetching when absent or stale.
	// It returns nil when the fetch fails.
	GetOrRefresh(ctx context.Context, userID string) *domain.BadgeEligibility

	// Invalidate drops the cached record for userID.
	Invalidate(userID string)
}

// RowAugmenter appends badge views to a host row.
type RowAugmenter interface {
	Augment(row integration.Row, userID string) integration.Row
}

// BadgeSet is the composed and rendered badge list for one user.
type BadgeSet struct {
	UserID string                `json:"user_id"`
	Badges []domain.BadgeRequest `json:"badges"`
	Views  []registry.View       `json:"views"`
}

// BadgeService provides badge lookups for the HTTP layer.
type BadgeService struct {
	// Cache holds fetched eligibility records.
	Cache BadgeCache
	// Registry renders badge requests.
	Registry *registry.Registry
	// Hook augments host rows; optional.
	Hook RowAugmenter
	// Log receives per-badge render failures at debug level.
	Log zerolog.Logger
}

// NewBadgeService wires a BadgeService.
func NewBadgeService(c BadgeCache, reg *registry.Registry, hook RowAugmenter) *BadgeService {
	return &BadgeService{
		Cache:    c,
		Registry: reg,
		Hook:     hook,
		Log:      log.With().Str("component", "badge_service").Logger(),
	}
}

// Badges returns the user's badges, fetching the record first when it is
// not fresh. A failed fetch or a cancelled ctx yields an empty set.
func (s *BadgeService) Badges(ctx context.Context, userID string) (*BadgeSet, error) {
	id, err := ValidateUserID(userID)
	if err != nil {
		return nil, err
	}

	set := &BadgeSet{UserID: id, Badges: []domain.BadgeRequest{}, Views: []registry.View{}}
	elig := s.Cache.GetOrRefresh(ctx, id)
	if elig == nil {
		return set, nil
	}

	for _, req := range badges.Compose(elig, id) {
		v, err := s.Registry.Render(req)
		if err != nil {
			s.Log.Debug().Err(err).Str("user_id", id).Msg("badge skipped")
			continue
		}
		set.Badges = append(set.Badges, req)
		set.Views = append(set.Views, v)
	}
	return set, nil
}

// Invalidate drops the cached record for userID.
func (s *BadgeService) Invalidate(userID string) error {
	id, err := ValidateUserID(userID)
	if err != nil {
		return err
	}
	s.Cache.Invalidate(id)
	return nil
}

// AugmentRow runs the host hook on row. It does not wait for a fetch: a
// user with nothing cached gets the row back unchanged while a refresh
// starts in the background.
func (s *BadgeService) AugmentRow(userID string, row integration.Row) (integration.Row, error) {
	id, err := ValidateUserID(userID)
	if err != nil {
		return row, err
	}
	if row.Children == nil {
		return row, ErrNoChildren
	}
	if s.Hook == nil {
		return row, nil
	}
	return s.Hook.Augment(row, id), nil
}

// Kinds lists every renderable badge kind.
func (s *BadgeService) Kinds() []registry.KindInfo {
	return s.Registry.Kinds()
}

// ValidateUserID trims userID and checks it is usable as a cache key and
// an API query value.
func ValidateUserID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	switch {
	case id == "":
		return "", ErrEmptyUserID
	case len(id) > MaxUserIDLen, !utf8.ValidString(id), invalidIDChars.MatchString(id):
		return "", ErrInvalidUserID
	}
	return id, nil
}
