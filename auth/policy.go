package auth

import (
	"errors"

	"github.com/krishkalaria12/snap-tiers/models"
)

var ErrForbidden = errors.New("auth: forbidden")

// Reason explains a denial for logs. It is never sent to clients.
type Reason string

const (
	ReasonNoUser        Reason = "no_user"
	ReasonNoImage       Reason = "no_image"
	ReasonNotOwner      Reason = "not_owner"
	ReasonSizeNotInPlan Reason = "size_not_in_plan"
	ReasonNoOriginal    Reason = "original_not_in_plan"
	ReasonNoExpiring    Reason = "expiring_not_in_plan"
)

type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return "auth: forbidden (" + string(e.Reason) + ")"
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

func deny(r Reason) error {
	return &DeniedError{Reason: r}
}

// ReasonOf extracts the internal reason from a denial.
func ReasonOf(err error) Reason {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason
	}
	return ""
}

// AuthorizeListing lets every authenticated user list their own images and
// returns the plan gating what the listing may contain.
func AuthorizeListing(u *models.User) models.Plan {
	return u.EffectivePlan()
}

// AuthorizeDownload grants a thumbnail of img at height size to u iff u owns
// img and the height is part of u's plan.
func AuthorizeDownload(u *models.User, img *models.Image, size int) error {
	if u == nil {
		return deny(ReasonNoUser)
	}
	if img == nil {
		return deny(ReasonNoImage)
	}
	if img.OwnerID != u.ID {
		return deny(ReasonNotOwner)
	}
	if !u.EffectivePlan().AllowsSize(size) {
		return deny(ReasonSizeNotInPlan)
	}
	return nil
}

func AuthorizeOriginalAccess(u *models.User) bool {
	return u.EffectivePlan().GrantsOriginal
}

func AuthorizeExpiringLink(u *models.User) bool {
	return u.EffectivePlan().GrantsExpiringLink
}

// AuthorizeOriginal is the ownership-checked form of AuthorizeOriginalAccess
// used when serving bytes.
func AuthorizeOriginal(u *models.User, img *models.Image) error {
	if err := authorizeOwner(u, img); err != nil {
		return err
	}
	if !AuthorizeOriginalAccess(u) {
		return deny(ReasonNoOriginal)
	}
	return nil
}

func AuthorizeExpiring(u *models.User, img *models.Image) error {
	if err := authorizeOwner(u, img); err != nil {
		return err
	}
	if !AuthorizeExpiringLink(u) {
		return deny(ReasonNoExpiring)
	}
	return nil
}

func authorizeOwner(u *models.User, img *models.Image) error {
	switch {
	case u == nil:
		return deny(ReasonNoUser)
	case img == nil:
		return deny(ReasonNoImage)
	case img.OwnerID != u.ID:
		return deny(ReasonNotOwner)
	}
	return nil
}
