package registry

import (
	"errors"
	"testing"

	"github.com/tbourn/go-profile-badges/internal/domain"
)

func TestDefault_CoversEveryKind(t *testing.T) {
	r := Default()
	if err := r.Validate(domain.AllKinds()...); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := len(r.Kinds()); got != len(domain.AllKinds()) {
		t.Fatalf("Kinds() = %d entries; want %d", got, len(domain.AllKinds()))
	}
}

func TestRender_FixedKindsIgnoreURLAndName(t *testing.T) {
	cases := []struct {
		kind    domain.BadgeKind
		tooltip string
		image   string
		link    string
	}{
		{domain.KindBDDeveloper, "BetterDiscord Developer", "", "https://betterdiscord.app/"},
		{domain.KindAliucordDeveloper, "Aliucord Developer", "", ""},
		{domain.KindAliucordContributor, "Aliucord Contributor", "", ""},
		{domain.KindAliucordDonor, "Aliucord Donor", "https://cdn.discordapp.com/emojis/859801776232202280.webp", ""},
		{domain.KindGooseModDeveloper, "GooseMod Developer", "https://goosemod.com/img/goose_glitch.jpg", ""},
		{domain.KindGooseModSponsor, "GooseMod Sponsor", "https://goosemod.com/img/goose_globe.png", ""},
		{domain.KindGooseModTranslator, "GooseMod Translator", "https://goosemod.com/img/goose_globe.png", ""},
		{domain.KindVencordContributor, "Vencord Contributor", "https://cdn.discordapp.com/attachments/1033680203433660458/1092089947126780035/favicon.png", ""},
	}
	r := Default()
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			v, err := r.Render(domain.BadgeRequest{Kind: tc.kind, URL: "https://ignored", Name: "ignored"})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if v.Tooltip != tc.tooltip || v.ImageURL != tc.image || v.Link != tc.link {
				t.Fatalf("view = %#v", v)
			}
			if v.ImageURL == "" && v.Icon == "" {
				t.Fatalf("fixed badge without icon or image: %#v", v)
			}
			if v.Kind != tc.kind || v.Color != DefaultColor || v.Scale != 1 {
				t.Fatalf("view = %#v", v)
			}
		})
	}
}

func TestRender_DynamicKinds(t *testing.T) {
	r := Default()

	v, err := r.Render(domain.BadgeRequest{Kind: domain.KindCustomBadges, URL: " https://img/x.png ", Name: "  Cafe\u0301 "})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if v.ImageURL != "https://img/x.png" || v.Scale != 1.25 {
		t.Fatalf("custom view = %#v", v)
	}
	if v.Tooltip != "Caf\u00e9" {
		t.Fatalf("tooltip not NFC-normalised and trimmed: %q", v.Tooltip)
	}

	for _, k := range []domain.BadgeKind{
		domain.KindAliucordCustom, domain.KindEnmitySupporter, domain.KindEnmityStaff,
		domain.KindEnmityDeveloper, domain.KindEnmityContributor, domain.KindEnmityCustom,
		domain.KindVencordCutie, domain.KindUserPFP,
	} {
		v, err := r.Render(domain.BadgeRequest{Kind: k, URL: "u", Name: "n"})
		if err != nil || v.ImageURL != "u" || v.Tooltip != "n" || v.Scale != 1 {
			t.Fatalf("%s: view = %#v err = %v", k, v, err)
		}
	}
}

func TestRender_Color(t *testing.T) {
	r := Default()
	for in, want := range map[string]string{"": DefaultColor, "  ": DefaultColor, "#FF0000": "ff0000", "abcdef": "abcdef"} {
		v, _ := r.Render(domain.BadgeRequest{Kind: domain.KindBDDeveloper, Color: in})
		if v.Color != want {
			t.Fatalf("color(%q) = %q; want %q", in, v.Color, want)
		}
	}
}

func TestRender_UnknownKind(t *testing.T) {
	if _, err := Default().Render(domain.BadgeRequest{Kind: "nope"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v; want ErrUnknownKind", err)
	}
	var nilReg *Registry
	if _, err := nilReg.Render(domain.BadgeRequest{Kind: domain.KindBDDeveloper}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("nil registry err = %v", err)
	}
}

func TestValidate_ReportsMissing(t *testing.T) {
	r := New(map[domain.BadgeKind]Renderer{
		domain.KindBDDeveloper: fixed(fixedBadge{tooltip: "x", icon: "x"}),
		domain.KindUserPFP:     nil,
	})
	err := r.Validate(domain.KindBDDeveloper, domain.KindUserPFP)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v", err)
	}
	if r.Has(domain.KindUserPFP) {
		t.Fatalf("nil renderer must not be registered")
	}
	if err := r.Validate(domain.KindBDDeveloper); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestKinds_Labels(t *testing.T) {
	kinds := Default().Kinds()
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1].Kind >= kinds[i].Kind {
			t.Fatalf("kinds not sorted at %d", i)
		}
	}
	labels := map[domain.BadgeKind]KindInfo{}
	for _, k := range kinds {
		labels[k.Kind] = k
	}
	if got := labels[domain.KindBDDeveloper]; got.Label != "BetterDiscord Developer" || got.Dynamic {
		t.Fatalf("bdDevs = %#v", got)
	}
	if got := labels[domain.KindEnmityDeveloper]; got.Label != "Enmity Devs" || !got.Dynamic {
		t.Fatalf("enmityDevs = %#v", got)
	}
	if got := labels[domain.KindCustomBadges]; got.Label != "Custom Badges Array" {
		t.Fatalf("customBadgesArray = %#v", got)
	}
}
