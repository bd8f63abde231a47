package badges

import "github.com/tbourn/go-profile-badges/internal/domain"

// dynamicSlots lists the named slots of the dynamic community in render
// order, each with the kind it renders as.
var dynamicSlots = []struct {
	slot string
	kind domain.BadgeKind
}{
	{domain.SlotSupporter, domain.KindEnmitySupporter},
	{domain.SlotStaff, domain.KindEnmityStaff},
	{domain.SlotDeveloper, domain.KindEnmityDeveloper},
	{domain.SlotContributor, domain.KindEnmityContributor},
}

// Compose maps an eligibility record to the badges to render, left to right.
//
// The order is fixed: custom badges, Aliucord developer/contributor/donor,
// the Aliucord custom badge, BetterDiscord developer, the dynamic slots
// (supporter, staff, developer, contributor), a dynamic slot keyed by the
// viewed user's own id, GooseMod developer/sponsor/translator, Vencord
// contributor, then the cutie list. Absent or false sections contribute
// nothing. Compose is pure; a nil record yields an empty, non-nil slice.
func Compose(e *domain.BadgeEligibility, userID string) []domain.BadgeRequest {
	out := make([]domain.BadgeRequest, 0)
	if e == nil {
		return out
	}

	for _, b := range e.CustomBadges {
		out = append(out, domain.BadgeRequest{Kind: domain.KindCustomBadges, URL: b.ImageURL, Name: b.Name})
	}

	aliu := e.Legacy.Aliucord
	if aliu.Developer {
		out = append(out, domain.BadgeRequest{Kind: domain.KindAliucordDeveloper})
	}
	if aliu.Contributor {
		out = append(out, domain.BadgeRequest{Kind: domain.KindAliucordContributor})
	}
	if aliu.Donor {
		out = append(out, domain.BadgeRequest{Kind: domain.KindAliucordDonor})
	}
	if c := e.LegacyCustomBadge; c != nil {
		out = append(out, domain.BadgeRequest{Kind: domain.KindAliucordCustom, URL: c.ImageURL, Name: c.Label})
	}

	if e.Legacy.BetterDiscord.Developer {
		out = append(out, domain.BadgeRequest{Kind: domain.KindBDDeveloper})
	}

	for _, s := range dynamicSlots {
		if b := e.DynamicCommunityBadges[s.slot]; b != nil {
			out = append(out, domain.BadgeRequest{Kind: s.kind, URL: b.ImageURLDark, Name: b.Label})
		}
	}
	// A slot keyed by the user's own id. Kept for parity with the upstream
	// API; nothing is known to populate it.
	if b := e.DynamicCommunityBadges[userID]; userID != "" && b != nil && b.Label != "" {
		out = append(out, domain.BadgeRequest{Kind: domain.KindEnmityCustom, URL: b.ImageURLDark, Name: b.Label})
	}

	goose := e.Legacy.GooseMod
	if goose.Developer {
		out = append(out, domain.BadgeRequest{Kind: domain.KindGooseModDeveloper})
	}
	if goose.Sponsor {
		out = append(out, domain.BadgeRequest{Kind: domain.KindGooseModSponsor})
	}
	if goose.Translator {
		out = append(out, domain.BadgeRequest{Kind: domain.KindGooseModTranslator})
	}

	if e.Contributor.Contributor {
		out = append(out, domain.BadgeRequest{Kind: domain.KindVencordContributor})
	}
	for _, c := range e.CutieList {
		out = append(out, domain.BadgeRequest{Kind: domain.KindVencordCutie, URL: c.ImageURL, Name: c.Label})
	}

	return out
}
