package badgeapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tbourn/go-profile-badges/internal/domain"
)

// truthy decodes a JSON value with JavaScript-like truthiness, so a flag the
// API sends as 1, "yes" or null does not poison the whole section.
type truthy bool

func (t *truthy) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*t = false
	case bytes.Equal(b, []byte("true")):
		*t = true
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = s != ""
	case b[0] == '{', b[0] == '[':
		*t = true
	default:
		*t = strings.Trim(string(b), "0.-") != ""
	}
	return nil
}

type wireCustomBadges struct {
	Badges []json.RawMessage `json:"badges"`
}

type wireCustomBadge struct {
	Name  string `json:"name"`
	Badge string `json:"badge"`
}

type wireAliucord struct {
	Dev         truthy          `json:"dev"`
	Donor       truthy          `json:"donor"`
	Contributor truthy          `json:"contributor"`
	Custom      json.RawMessage `json:"custom"`
}

type wireLabeledURL struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type wireBetterDiscord struct {
	Dev truthy `json:"dev"`
}

type wireEnmitySlot struct {
	Data *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  struct {
			Dark  string `json:"dark"`
			Light string `json:"light"`
		} `json:"url"`
	} `json:"data"`
}

type wireGooseMod struct {
	Sponsor    truthy `json:"sponsor"`
	Dev        truthy `json:"dev"`
	Translator truthy `json:"translator"`
}

type wireVencord struct {
	Contributor truthy `json:"contributor"`
	Cutie       []struct {
		Tooltip string `json:"tooltip"`
		Image   string `json:"image"`
		Badge   string `json:"badge"`
	} `json:"cutie"`
}

// Decode parses a badge API response body. It never fails: an empty or
// invalid body yields an empty record, and each section is decoded on its
// own so one malformed section only drops that section. List entries are
// decoded one at a time the same way.
func Decode(body []byte) *domain.BadgeEligibility {
	out := &domain.BadgeEligibility{}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(body, &sections); err != nil {
		return out
	}

	if cb, ok := section[wireCustomBadges](sections, "customBadgesArray"); ok {
		for _, raw := range cb.Badges {
			b, ok := object[wireCustomBadge](raw)
			if !ok {
				continue
			}
			out.CustomBadges = append(out.CustomBadges, domain.CustomBadge{Name: b.Name, ImageURL: b.Badge})
		}
	}

	if a, ok := section[wireAliucord](sections, "aliu"); ok {
		out.Legacy.Aliucord = domain.AliucordFlags{
			Developer:   bool(a.Dev),
			Contributor: bool(a.Contributor),
			Donor:       bool(a.Donor),
		}
		if c, ok := object[wireLabeledURL](a.Custom); ok {
			out.LegacyCustomBadge = &domain.LabeledImage{Label: c.Text, ImageURL: c.URL}
		}
	}

	if bd, ok := section[wireBetterDiscord](sections, "bd"); ok {
		out.Legacy.BetterDiscord.Developer = bool(bd.Dev)
	}

	if slots, ok := section[map[string]json.RawMessage](sections, "enmity"); ok {
		for name, raw := range slots {
			s, ok := object[wireEnmitySlot](raw)
			if !ok {
				continue
			}
			b := &domain.DynamicBadge{}
			if s.Data != nil {
				b.ID = s.Data.ID
				b.Label = s.Data.Name
				b.ImageURLDark = s.Data.URL.Dark
				b.ImageURLLight = s.Data.URL.Light
			}
			if out.DynamicCommunityBadges == nil {
				out.DynamicCommunityBadges = make(map[string]*domain.DynamicBadge, len(slots))
			}
			out.DynamicCommunityBadges[name] = b
		}
	}

	if g, ok := section[wireGooseMod](sections, "goosemod"); ok {
		out.Legacy.GooseMod = domain.GooseModFlags{
			Developer:  bool(g.Dev),
			Sponsor:    bool(g.Sponsor),
			Translator: bool(g.Translator),
		}
	}

	if v, ok := section[wireVencord](sections, "vencord"); ok {
		out.Contributor.Contributor = bool(v.Contributor)
		for _, c := range v.Cutie {
			img := c.Image
			if img == "" {
				img = c.Badge
			}
			out.CutieList = append(out.CutieList, domain.LabeledImage{Label: c.Tooltip, ImageURL: img})
		}
	}

	if pfp, ok := section[string](sections, "userpfp"); ok {
		out.UserPFP = pfp
	}

	return out
}

// section decodes sections[key] into T. Missing, null and malformed values
// report false.
func section[T any](sections map[string]json.RawMessage, key string) (T, bool) {
	var v T
	raw, ok := sections[key]
	if !ok {
		return v, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return v, false
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, false
	}
	return v, true
}

// object decodes raw into T only when raw is a JSON object.
func object[T any](raw json.RawMessage) (T, bool) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return v, false
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, false
	}
	return v, true
}
