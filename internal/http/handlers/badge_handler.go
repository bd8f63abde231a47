// Badge HTTP handlers.
//
// This file exposes REST endpoints for user badges:
//   - GET    /users/{id}/badges   (composed + rendered badges, ETag support)
//   - DELETE /users/{id}/badges   (drop the cached record)
//   - POST   /users/{id}/row      (append badges to a host row)
//   - GET    /badge-kinds         (registered kinds)
//
// Handlers are transport-thin: they validate input, call the badge service,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-profile-badges/internal/integration"
	"github.com/tbourn/go-profile-badges/internal/registry"
	"github.com/tbourn/go-profile-badges/internal/services"
)

//
// Service contract
//

// BadgeService defines the badge operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BadgeService interface {
	// Badges returns the composed and rendered badges of userID.
	Badges(ctx context.Context, userID string) (*services.BadgeSet, error)
	// Invalidate drops the cached record of userID.
	Invalidate(userID string) error
	// AugmentRow appends the cached badges of userID to row.
	AugmentRow(userID string, row integration.Row) (integration.Row, error)
	// Kinds lists every renderable badge kind.
	Kinds() []registry.KindInfo
}

//
// Handler wiring
//

// Handlers groups the badge HTTP endpoints.
type Handlers struct {
	svc BadgeService
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc BadgeService) *Handlers {
	return &Handlers{svc: svc}
}

//
// DTOs
//

// AugmentRowRequest is the JSON payload for POST /users/{id}/row. Children
// are opaque host elements and are echoed back untouched.
type AugmentRowRequest struct {
	Children  []any  `json:"children"`
	ClassName string `json:"class_name"`
}

// ListKindsResponse wraps the registered badge kinds.
type ListKindsResponse struct {
	Kinds []registry.KindInfo `json:"kinds"`
}

//
// Helpers
//

// failService maps service errors onto the error envelope.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyUserID), errors.Is(err, services.ErrInvalidUserID):
		fail(c, http.StatusBadRequest, ErrCodeInvalidUserID, err.Error())
	case errors.Is(err, services.ErrNoChildren):
		fail(c, http.StatusBadRequest, ErrCodeMissingChildren, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// badgesETag derives a weak validator from the rendered views.
func badgesETag(set *services.BadgeSet) string {
	h := fnv.New64a()
	for _, v := range set.Views {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%g\n", v.Kind, v.Tooltip, v.ImageURL, v.Icon, v.Link, v.Color, v.Scale)
	}
	return fmt.Sprintf(`W/"badges:%s:%d:%x"`, set.UserID, len(set.Views), h.Sum64())
}

//
// Handlers
//

// GetBadges returns the badges of the user in the path. A user whose record
// could not be fetched gets an empty list, not an error.
//
// Responds 304 when If-None-Match equals the current ETag.
func (h *Handlers) GetBadges(c *gin.Context) {
	set, err := h.svc.Badges(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}

	etag := badgesETag(set)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, set)
}

// InvalidateBadges drops the cached record so the next lookup refetches.
func (h *Handlers) InvalidateBadges(c *gin.Context) {
	if err := h.svc.Invalidate(c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// AugmentRow appends the user's cached badges to the posted row. It never
// waits on the badge API; an uncached user gets the row back unchanged.
func (h *Handlers) AugmentRow(c *gin.Context) {
	var req AugmentRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	row, err := h.svc.AugmentRow(c.Param("id"), integration.Row{
		Children:  req.Children,
		ClassName: req.ClassName,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, row)
}

// ListKinds returns every registered badge kind.
func (h *Handlers) ListKinds(c *gin.Context) {
	ok(c, http.StatusOK, ListKindsResponse{Kinds: h.svc.Kinds()})
}
