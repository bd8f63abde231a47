// Package registry maps badge kinds to render views.
//
// Fixed kinds carry a built-in icon or image and a fixed tooltip and ignore
// the request's URL and name. Dynamic kinds render the request URL with the
// request name as tooltip.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-profile-badges/internal/domain"
)

// DefaultColor is applied when a request carries no color.
const DefaultColor = "7289da"

// ErrUnknownKind is returned for kinds without a renderer.
var ErrUnknownKind = errors.New("registry: unknown badge kind")

// View is a rendered badge, ready for a host to draw.
type View struct {
	Kind     domain.BadgeKind `json:"kind"`
	Tooltip  string           `json:"tooltip,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
	Icon     string           `json:"icon,omitempty"`
	Link     string           `json:"link,omitempty"`
	Color    string           `json:"color"`
	Scale    float64          `json:"scale"`
}

// Renderer turns a request into a View.
type Renderer func(req domain.BadgeRequest) View

// KindInfo describes one registered kind.
type KindInfo struct {
	Kind    domain.BadgeKind `json:"kind"`
	Label   string           `json:"label"`
	Dynamic bool             `json:"dynamic"`
}

// Registry is an immutable kind -> renderer table. The zero value renders
// nothing; use Default or New.
type Registry struct {
	renderers map[domain.BadgeKind]Renderer
}

// New builds a registry from the given table. The map is copied.
func New(table map[domain.BadgeKind]Renderer) *Registry {
	r := &Registry{renderers: make(map[domain.BadgeKind]Renderer, len(table))}
	for k, fn := range table {
		if fn != nil {
			r.renderers[k] = fn
		}
	}
	return r
}

// Default returns the registry for every domain.BadgeKind.
func Default() *Registry {
	return New(map[domain.BadgeKind]Renderer{
		domain.KindCustomBadges:   dynamic(1.25),
		domain.KindAliucordCustom: dynamic(1),

		domain.KindAliucordDeveloper:   fixed(fixedBadge{tooltip: "Aliucord Developer", icon: "aliucord-developer"}),
		domain.KindAliucordContributor: fixed(fixedBadge{tooltip: "Aliucord Contributor", icon: "aliucord-contributor"}),
		domain.KindAliucordDonor: fixed(fixedBadge{
			tooltip: "Aliucord Donor",
			image:   "https://cdn.discordapp.com/emojis/859801776232202280.webp",
		}),

		domain.KindBDDeveloper: fixed(fixedBadge{
			tooltip: "BetterDiscord Developer",
			icon:    "betterdiscord",
			link:    "https://betterdiscord.app/",
		}),

		domain.KindEnmitySupporter:   dynamic(1),
		domain.KindEnmityStaff:       dynamic(1),
		domain.KindEnmityDeveloper:   dynamic(1),
		domain.KindEnmityContributor: dynamic(1),
		domain.KindEnmityCustom:      dynamic(1),

		domain.KindGooseModDeveloper:  fixed(fixedBadge{tooltip: "GooseMod Developer", image: "https://goosemod.com/img/goose_glitch.jpg"}),
		domain.KindGooseModSponsor:    fixed(fixedBadge{tooltip: "GooseMod Sponsor", image: "https://goosemod.com/img/goose_globe.png"}),
		domain.KindGooseModTranslator: fixed(fixedBadge{tooltip: "GooseMod Translator", image: "https://goosemod.com/img/goose_globe.png"}),

		domain.KindVencordContributor: fixed(fixedBadge{
			tooltip: "Vencord Contributor",
			image:   "https://cdn.discordapp.com/attachments/1033680203433660458/1092089947126780035/favicon.png",
		}),
		domain.KindVencordCutie: dynamic(1),
		domain.KindUserPFP:      dynamic(1),
	})
}

// Render produces the view for req.
func (r *Registry) Render(req domain.BadgeRequest) (View, error) {
	if r == nil {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	fn, ok := r.renderers[req.Kind]
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	v := fn(req)
	v.Kind = req.Kind
	v.Color = colorOrDefault(req.Color)
	return v, nil
}

// Has reports whether k has a renderer.
func (r *Registry) Has(k domain.BadgeKind) bool {
	if r == nil {
		return false
	}
	_, ok := r.renderers[k]
	return ok
}

// Validate fails with ErrUnknownKind naming every kind that lacks a renderer.
func (r *Registry) Validate(kinds ...domain.BadgeKind) error {
	var missing []string
	for _, k := range kinds {
		if !r.Has(k) {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKind, strings.Join(missing, ", "))
	}
	return nil
}

// Kinds lists the registered kinds sorted by kind.
func (r *Registry) Kinds() []KindInfo {
	if r == nil {
		return []KindInfo{}
	}
	out := make([]KindInfo, 0, len(r.renderers))
	for k, fn := range r.renderers {
		label := fn(domain.BadgeRequest{Kind: k}).Tooltip
		if label == "" {
			label = humanize(string(k))
		}
		out = append(out, KindInfo{Kind: k, Label: label, Dynamic: k.Dynamic()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

type fixedBadge struct {
	tooltip string
	icon    string
	image   string
	link    string
}

func fixed(b fixedBadge) Renderer {
	return func(domain.BadgeRequest) View {
		return View{Tooltip: b.tooltip, Icon: b.icon, ImageURL: b.image, Link: b.link, Scale: 1}
	}
}

func dynamic(scale float64) Renderer {
	return func(req domain.BadgeRequest) View {
		return View{Tooltip: cleanTooltip(req.Name), ImageURL: strings.TrimSpace(req.URL), Scale: scale}
	}
}

// cleanTooltip NFC-normalises and trims a user-supplied name.
func cleanTooltip(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func colorOrDefault(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if c == "" {
		return DefaultColor
	}
	return strings.ToLower(c)
}

// humanize turns "enmityDevs" into "Enmity Devs".
func humanize(kind string) string {
	var b strings.Builder
	for i, r := range kind {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.English, cases.NoLower).String(b.String())
}
