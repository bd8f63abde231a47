// Package domain defines the badge data model shared by the cache, the
// composer, the render registry and the HTTP layer.
//
// A BadgeEligibility is what the reputation API knows about one user. It is
// decoded permissively: every section is optional and an empty record is a
// valid value that simply yields no badges.
package domain

// CustomBadge is a user-supplied badge with its own image.
type CustomBadge struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// LabeledImage is a free-form badge: an image plus the text shown on hover.
type LabeledImage struct {
	Label    string `json:"label"`
	ImageURL string `json:"image_url"`
}

// AliucordFlags are the badges of the first legacy community.
type AliucordFlags struct {
	Developer   bool `json:"developer,omitempty"`
	Contributor bool `json:"contributor,omitempty"`
	Donor       bool `json:"donor,omitempty"`
}

// BetterDiscordFlags are the badges of the second legacy community.
type BetterDiscordFlags struct {
	Developer bool `json:"developer,omitempty"`
}

// GooseModFlags are the badges of the third legacy community.
type GooseModFlags struct {
	Developer  bool `json:"developer,omitempty"`
	Sponsor    bool `json:"sponsor,omitempty"`
	Translator bool `json:"translator,omitempty"`
}

// LegacyCommunityFlags groups the boolean badges of the legacy communities.
type LegacyCommunityFlags struct {
	Aliucord      AliucordFlags      `json:"aliucord"`
	BetterDiscord BetterDiscordFlags `json:"better_discord"`
	GooseMod      GooseModFlags      `json:"goose_mod"`
}

// DynamicBadge is one named badge issued by the dynamic community. Only the
// dark-mode image is rendered; the light one is kept for API consumers.
type DynamicBadge struct {
	ID            string `json:"id,omitempty"`
	Label         string `json:"label"`
	ImageURLLight string `json:"image_url_light,omitempty"`
	ImageURLDark  string `json:"image_url_dark"`
}

// ContributorFlags are the boolean badges of the fifth community.
type ContributorFlags struct {
	Contributor bool `json:"contributor,omitempty"`
}

// Well-known slot names of DynamicCommunityBadges, in render order.
const (
	SlotSupporter   = "supporter"
	SlotStaff       = "staff"
	SlotDeveloper   = "developer"
	SlotContributor = "contributor"
)

// BadgeEligibility is the per-user record fetched from the badge API.
type BadgeEligibility struct {
	CustomBadges           []CustomBadge            `json:"custom_badges,omitempty"`
	Legacy                 LegacyCommunityFlags     `json:"legacy"`
	LegacyCustomBadge      *LabeledImage            `json:"legacy_custom_badge,omitempty"`
	DynamicCommunityBadges map[string]*DynamicBadge `json:"dynamic_community_badges,omitempty"`
	Contributor            ContributorFlags         `json:"contributor"`
	CutieList              []LabeledImage           `json:"cutie_list,omitempty"`
	UserPFP                string                   `json:"userpfp,omitempty"`
}

// IsEmpty reports whether e carries no truthy flag and no list entry.
// A nil record is empty.
func (e *BadgeEligibility) IsEmpty() bool {
	if e == nil {
		return true
	}
	if len(e.CustomBadges) > 0 || len(e.CutieList) > 0 || e.LegacyCustomBadge != nil || e.UserPFP != "" {
		return false
	}
	for _, b := range e.DynamicCommunityBadges {
		if b != nil {
			return false
		}
	}
	return e.Legacy == (LegacyCommunityFlags{}) && e.Contributor == (ContributorFlags{})
}
