package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/krishkalaria12/snap-tiers/links"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMinter struct {
	fail bool
}

func (f fakeMinter) ThumbnailURL(img models.Image, h int) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	return fmt.Sprintf("http://h/download/%d/%d/tok", img.ID, h), nil
}

func (fakeMinter) OriginalURL(img models.Image) (string, error) {
	return fmt.Sprintf("http://h/original/%d/tok", img.ID), nil
}

func (fakeMinter) ExpiringURL(img models.Image, ttl time.Duration) (string, time.Time, error) {
	return fmt.Sprintf("http://h/shared/%d-%s", img.ID, ttl), time.Time{}, nil
}

func sizes(hs ...int) []models.ThumbnailSize {
	out := make([]models.ThumbnailSize, 0, len(hs))
	for _, h := range hs {
		out = append(out, models.ThumbnailSize{Height: h})
	}
	return out
}

var upload = models.Image{ID: 1, OwnerID: 7, StoragePath: "images/7/abc_photo.jpg"}

func TestAssembleBasic(t *testing.T) {
	plan := models.Plan{Name: "Basic", Thumbnails: sizes(200)}

	entries, err := Assemble([]models.Image{upload}, plan, fakeMinter{}, time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "abc_photo.jpg", e.Image)
	assert.Equal(t, []ThumbnailLink{{Label: "Thumbnail height 200px", Height: 200, URL: "http://h/download/1/200/tok"}}, e.Thumbnails)
	assert.Nil(t, e.OriginalURL)
	assert.Nil(t, e.ExpiringURL)
}

func TestAssemblePremium(t *testing.T) {
	plan := models.Plan{Name: "Premium", Thumbnails: sizes(400, 200), GrantsOriginal: true}

	entries, err := Assemble([]models.Image{upload}, plan, fakeMinter{}, time.Hour)
	require.NoError(t, err)

	e := entries[0]
	require.Len(t, e.Thumbnails, 2)
	assert.Equal(t, 200, e.Thumbnails[0].Height)
	assert.Equal(t, 400, e.Thumbnails[1].Height)
	require.NotNil(t, e.OriginalURL)
	assert.Equal(t, "http://h/original/1/tok", *e.OriginalURL)
	assert.Nil(t, e.ExpiringURL)
}

func TestAssembleEnterprise(t *testing.T) {
	plan := models.Plan{Name: "Enterprise", Thumbnails: sizes(200, 400), GrantsOriginal: true, GrantsExpiringLink: true}

	entries, err := Assemble([]models.Image{upload}, plan, fakeMinter{}, 10*time.Minute)
	require.NoError(t, err)

	e := entries[0]
	assert.Len(t, e.Thumbnails, 2)
	assert.NotNil(t, e.OriginalURL)
	require.NotNil(t, e.ExpiringURL)
	assert.Equal(t, "http://h/shared/1-10m0s", *e.ExpiringURL)
}

func TestAssembleNoPlan(t *testing.T) {
	entries, err := Assemble([]models.Image{upload}, models.NoPlan, fakeMinter{}, time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Thumbnails)

	body, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"image":"abc_photo.jpg","thumbnails":[]}`, string(body))
}

func TestAssembleOrdersNewestFirst(t *testing.T) {
	imgs := []models.Image{
		{ID: 2, StoragePath: "b.png"},
		{ID: 5, StoragePath: "e.png"},
		{ID: 3, StoragePath: "c.png"},
	}
	plan := models.Plan{Thumbnails: sizes(200)}

	entries, err := Assemble(imgs, plan, fakeMinter{}, time.Hour)
	require.NoError(t, err)

	var ids []uint
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []uint{5, 3, 2}, ids)
	assert.Equal(t, uint(2), imgs[0].ID, "input slice must not be reordered")
}

func TestAssembleJSONKeys(t *testing.T) {
	plan := models.Plan{Thumbnails: sizes(200), GrantsOriginal: true, GrantsExpiringLink: true}
	entries, err := Assemble([]models.Image{upload}, plan, fakeMinter{}, time.Hour)
	require.NoError(t, err)

	body, err := json.Marshal(entries[0])
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Contains(t, raw, "original image")
	assert.Contains(t, raw, "expiring link")
}

func TestAssemblePropagatesMinterErrors(t *testing.T) {
	plan := models.Plan{Thumbnails: sizes(200)}
	_, err := Assemble([]models.Image{upload}, plan, fakeMinter{fail: true}, time.Hour)
	assert.Error(t, err)
}

func TestAssembleWithSignedLinks(t *testing.T) {
	signer := links.NewSigner("0123456789abcdef-listing", "snap-tiers")
	builder := links.NewBuilder(signer, "https://img.example.com", time.Hour, false)
	plan := models.Plan{Thumbnails: sizes(200, 400)}

	entries, err := Assemble([]models.Image{upload}, plan, builder, time.Hour)
	require.NoError(t, err)

	for _, link := range entries[0].Thumbnails {
		prefix := fmt.Sprintf("https://img.example.com/download/1/%d/", link.Height)
		require.True(t, len(link.URL) > len(prefix))
		assert.Equal(t, prefix, link.URL[:len(prefix)])

		claims, err := signer.Parse(link.URL[len(prefix):], links.KindThumbnail)
		require.NoError(t, err)
		assert.Equal(t, link.Height, claims.Height)
		assert.Equal(t, uint(1), claims.ImageID)
	}
}
