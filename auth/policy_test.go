package auth

import (
	"errors"
	"testing"

	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/stretchr/testify/assert"
)

func plan(name string, original, expiring bool, sizes ...int) *models.Plan {
	p := &models.Plan{Name: name, GrantsOriginal: original, GrantsExpiringLink: expiring}
	for _, s := range sizes {
		p.Thumbnails = append(p.Thumbnails, models.ThumbnailSize{Height: s})
	}
	return p
}

var (
	basic      = plan("Basic", false, false, 200)
	premium    = plan("Premium", true, false, 200, 400)
	enterprise = plan("Enterprise", true, true, 200, 400)
)

func TestAuthorizeDownloadMatrix(t *testing.T) {
	plans := []*models.Plan{basic, premium, enterprise, nil}
	sizes := []int{100, 200, 300, 400}

	for _, p := range plans {
		owner := &models.User{ID: 1, Plan: p}
		stranger := &models.User{ID: 2, Plan: p}
		img := &models.Image{ID: 10, OwnerID: owner.ID}

		for _, size := range sizes {
			want := p != nil && p.AllowsSize(size)
			err := AuthorizeDownload(owner, img, size)
			assert.Equal(t, want, err == nil, "plan=%v size=%d", p, size)
			if err != nil {
				assert.ErrorIs(t, err, ErrForbidden)
				assert.Equal(t, ReasonSizeNotInPlan, ReasonOf(err))
			}

			// Ownership isolation holds whatever the plan.
			err = AuthorizeDownload(stranger, img, size)
			assert.ErrorIs(t, err, ErrForbidden)
			assert.Equal(t, ReasonNotOwner, ReasonOf(err))
		}
	}
}

func TestAuthorizeDownloadMissingParties(t *testing.T) {
	u := &models.User{ID: 1, Plan: premium}

	assert.Equal(t, ReasonNoImage, ReasonOf(AuthorizeDownload(u, nil, 200)))
	assert.Equal(t, ReasonNoUser, ReasonOf(AuthorizeDownload(nil, &models.Image{OwnerID: 1}, 200)))
}

func TestDeniedErrorIsOpaque(t *testing.T) {
	notOwner := AuthorizeDownload(&models.User{ID: 1, Plan: basic}, &models.Image{OwnerID: 2}, 200)
	badSize := AuthorizeDownload(&models.User{ID: 1, Plan: basic}, &models.Image{OwnerID: 1}, 400)

	assert.True(t, errors.Is(notOwner, ErrForbidden))
	assert.True(t, errors.Is(badSize, ErrForbidden))
	assert.NotEqual(t, ReasonOf(notOwner), ReasonOf(badSize))
	assert.Equal(t, Reason(""), ReasonOf(errors.New("other")))
}

func TestCapabilityFlags(t *testing.T) {
	tests := []struct {
		plan     *models.Plan
		original bool
		expiring bool
		sizes    []int
	}{
		{basic, false, false, []int{200}},
		{premium, true, false, []int{200, 400}},
		{enterprise, true, true, []int{200, 400}},
		{nil, false, false, []int{}},
	}

	for _, tt := range tests {
		u := &models.User{ID: 1, Plan: tt.plan}
		assert.Equal(t, tt.original, AuthorizeOriginalAccess(u))
		assert.Equal(t, tt.expiring, AuthorizeExpiringLink(u))
		assert.Equal(t, tt.sizes, AuthorizeListing(u).Sizes())
	}
}

func TestAuthorizeOriginalAndExpiring(t *testing.T) {
	img := &models.Image{ID: 3, OwnerID: 1}

	assert.NoError(t, AuthorizeOriginal(&models.User{ID: 1, Plan: premium}, img))
	assert.Equal(t, ReasonNoOriginal, ReasonOf(AuthorizeOriginal(&models.User{ID: 1, Plan: basic}, img)))
	assert.Equal(t, ReasonNotOwner, ReasonOf(AuthorizeOriginal(&models.User{ID: 2, Plan: enterprise}, img)))

	assert.NoError(t, AuthorizeExpiring(&models.User{ID: 1, Plan: enterprise}, img))
	assert.Equal(t, ReasonNoExpiring, ReasonOf(AuthorizeExpiring(&models.User{ID: 1, Plan: premium}, img)))
}
