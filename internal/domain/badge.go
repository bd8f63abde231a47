package domain

// BadgeKind identifies how a badge is rendered. The values double as the
// keys of the render registry and are stable on the wire.
type BadgeKind string

const (
	KindCustomBadges        BadgeKind = "customBadgesArray"
	KindAliucordDeveloper   BadgeKind = "aliucordDeveloper"
	KindAliucordContributor BadgeKind = "aliucordContributor"
	KindAliucordDonor       BadgeKind = "aliucordDonor"
	KindAliucordCustom      BadgeKind = "aliucordCustom"
	KindBDDeveloper         BadgeKind = "bdDevs"
	KindEnmitySupporter     BadgeKind = "enmitySupporter"
	KindEnmityStaff         BadgeKind = "enmityStaff"
	KindEnmityDeveloper     BadgeKind = "enmityDevs"
	KindEnmityContributor   BadgeKind = "enmityContributors"
	KindEnmityCustom        BadgeKind = "enmityCustom"
	KindGooseModDeveloper   BadgeKind = "gooseModDeveloper"
	KindGooseModSponsor     BadgeKind = "gooseModSponsor"
	KindGooseModTranslator  BadgeKind = "gooseModTranslator"
	KindVencordContributor  BadgeKind = "vencordContributor"
	KindVencordCutie        BadgeKind = "vencordCutie"
	KindUserPFP             BadgeKind = "userpfp"
)

var allKinds = []BadgeKind{
	KindCustomBadges,
	KindAliucordDeveloper,
	KindAliucordContributor,
	KindAliucordDonor,
	KindAliucordCustom,
	KindBDDeveloper,
	KindEnmitySupporter,
	KindEnmityStaff,
	KindEnmityDeveloper,
	KindEnmityContributor,
	KindEnmityCustom,
	KindGooseModDeveloper,
	KindGooseModSponsor,
	KindGooseModTranslator,
	KindVencordContributor,
	KindVencordCutie,
	KindUserPFP,
}

// AllKinds returns every BadgeKind in declaration order. The slice is a copy.
func AllKinds() []BadgeKind {
	out := make([]BadgeKind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Dynamic reports whether k renders an image from the request URL rather
// than a fixed built-in icon.
func (k BadgeKind) Dynamic() bool {
	switch k {
	case KindCustomBadges, KindAliucordCustom,
		KindEnmitySupporter, KindEnmityStaff, KindEnmityDeveloper, KindEnmityContributor, KindEnmityCustom,
		KindVencordCutie, KindUserPFP:
		return true
	}
	return false
}

// BadgeRequest asks the render layer for one badge. URL and Name are only
// meaningful for dynamic kinds.
type BadgeRequest struct {
	Kind  BadgeKind `json:"kind"`
	Color string    `json:"color,omitempty"`
	URL   string    `json:"url,omitempty"`
	Name  string    `json:"name,omitempty"`
}
