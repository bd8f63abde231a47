// Package integration binds the badge cache and composer to a host's badge
// row. The host hands over its rendered children and the viewed user id and
// gets the row back with badge views appended.
package integration

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/domain"
	"github.com/tbourn/go-profile-badges/internal/registry"
)

// GlobalContainerClass is always added next to the host container class.
const GlobalContainerClass = "global-badges-container"

// ErrMissingDependency aborts startup when the host cannot supply something
// the hook needs.
var ErrMissingDependency = errors.New("integration: missing dependency")

// Source is the part of the badge cache the hook uses.
type Source interface {
	Get(userID string) (*domain.BadgeEligibility, bool)
	Subscribe(userID string, fn badges.Listener) (cancel func())
}

// HostDeps are host references resolved once at startup.
type HostDeps struct {
	// ContainerClass is the host class name marking a badge row that has
	// content.
	ContainerClass string
}

// Row is a host badge row. Children is nil when the host rendered no list.
type Row struct {
	Children  []any  `json:"children"`
	ClassName string `json:"class_name"`
}

// Hook augments badge rows.
type Hook struct {
	src  Source
	reg  *registry.Registry
	deps HostDeps
	log  zerolog.Logger
}

// NewHook validates its dependencies and returns a Hook. Any missing piece,
// including a registry that cannot render every badge kind, is reported as
// ErrMissingDependency.
func NewHook(src Source, reg *registry.Registry, deps HostDeps) (*Hook, error) {
	var missing []string
	if src == nil {
		missing = append(missing, "badge cache")
	}
	if reg == nil {
		missing = append(missing, "badge registry")
	} else if err := reg.Validate(domain.AllKinds()...); err != nil {
		missing = append(missing, err.Error())
	}
	deps.ContainerClass = strings.TrimSpace(deps.ContainerClass)
	if deps.ContainerClass == "" || len(strings.Fields(deps.ContainerClass)) != 1 {
		missing = append(missing, "container class")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingDependency, strings.Join(missing, "; "))
	}
	return &Hook{
		src:  src,
		reg:  reg,
		deps: deps,
		log:  log.With().Str("component", "badge_hook").Logger(),
	}, nil
}

// Augment appends the user's badge views to row. The row comes back as is
// when nothing is cached for userID yet or the host rendered no child list;
// in the first case a refresh is started in the background.
func (h *Hook) Augment(row Row, userID string) Row {
	if row.Children == nil {
		return row
	}
	elig, ok := h.src.Get(userID)
	if !ok || elig == nil {
		return row
	}

	existing := len(row.Children)
	out := Row{
		Children:  make([]any, existing, existing+8),
		ClassName: row.ClassName,
	}
	copy(out.Children, row.Children)

	for _, req := range badges.Compose(elig, userID) {
		v, err := h.reg.Render(req)
		if err != nil {
			h.log.Debug().Err(err).Str("user_id", userID).Msg("badge skipped")
			continue
		}
		out.Children = append(out.Children, v)
	}

	if len(out.Children) > existing && existing > 0 {
		out.ClassName = addClasses(out.ClassName, h.deps.ContainerClass, GlobalContainerClass)
	}
	return out
}

// Views renders the user's badges without a host row. ok is false when
// nothing is cached yet.
func (h *Hook) Views(userID string) (views []registry.View, ok bool) {
	elig, ok := h.src.Get(userID)
	if !ok || elig == nil {
		return nil, false
	}
	views = make([]registry.View, 0)
	for _, req := range badges.Compose(elig, userID) {
		if v, err := h.reg.Render(req); err == nil {
			views = append(views, v)
		}
	}
	return views, true
}

// Binding ties a mounted view to cache refreshes for one user.
type Binding struct {
	mounted atomic.Bool
	cancel  func()
}

// Mount calls rerender whenever a refresh for userID lands, until the
// binding is unmounted. rerender receives nil after a failed refresh.
func (h *Hook) Mount(userID string, rerender func(*domain.BadgeEligibility)) *Binding {
	b := &Binding{}
	b.mounted.Store(true)
	b.cancel = h.src.Subscribe(userID, func(e *domain.BadgeEligibility) {
		if !b.mounted.Load() || rerender == nil {
			return
		}
		rerender(e)
	})
	return b
}

// Mounted reports whether the binding still delivers refreshes.
func (b *Binding) Mounted() bool { return b != nil && b.mounted.Load() }

// Unmount stops delivery. It is safe to call more than once.
func (b *Binding) Unmount() {
	if b == nil || !b.mounted.CompareAndSwap(true, false) {
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
}

// addClasses appends each token to a space-separated class list unless it
// is already there.
func addClasses(className string, tokens ...string) string {
	fields := strings.Fields(className)
	have := make(map[string]struct{}, len(fields)+len(tokens))
	for _, f := range fields {
		have[f] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := have[t]; ok {
			continue
		}
		have[t] = struct{}{}
		fields = append(fields, t)
	}
	return strings.Join(fields, " ")
}
