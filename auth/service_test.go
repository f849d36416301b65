package auth

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/krishkalaria12/snap-tiers/database/dbtest"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/krishkalaria12/snap-tiers/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB, *images.Store, *storage.FileStore) {
	t.Helper()
	db := dbtest.Open(t)
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := images.NewStore(db, fs, time.Second, zerolog.Nop())
	return NewService(db, store, zerolog.Nop()), db, store, fs
}

func TestLoginIssuesStableToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	_, err := svc.CreateUser(ctx, NewUser{Username: "alice", Password: "testpassword123"})
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "alice", "testpassword123")
	require.NoError(t, err)
	assert.Len(t, token, tokenKeyLength)
	assert.Equal(t, "alice", user.Username)

	again, _, err := svc.Login(ctx, "alice", "testpassword123")
	require.NoError(t, err)
	assert.Equal(t, token, again)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "testpassword123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, db, _, _ := newService(t)

	p := models.Plan{Name: "Premium", GrantsOriginal: true, Thumbnails: []models.ThumbnailSize{{Height: 200}, {Height: 400}}}
	require.NoError(t, db.Create(&p).Error)

	_, err := svc.CreateUser(ctx, NewUser{Username: "carol", Password: "pw-123456", PlanID: &p.ID})
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "carol", "pw-123456")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	require.NotNil(t, user.Plan)
	assert.Equal(t, []int{200, 400}, user.Plan.Sizes())

	for _, bad := range []string{"", "short", "zz44b09199c62bcf9418ad846dd0e4bbdfc6ee4b", "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"} {
		_, err := svc.Authenticate(ctx, bad)
		assert.ErrorIs(t, err, ErrUnauthenticated, bad)
	}
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	u, err := svc.CreateUser(ctx, NewUser{Username: " dave ", Password: "secret", IsSuperuser: true})
	require.NoError(t, err)
	assert.Equal(t, "dave", u.Username)
	assert.True(t, u.IsStaff)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Nil(t, u.Plan)

	_, err = svc.CreateUser(ctx, NewUser{Username: "dave", Password: "other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.CreateUser(ctx, NewUser{Username: "erin"})
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestDeleteUserReleasesImages(t *testing.T) {
	ctx := context.Background()
	svc, db, store, fs := newService(t)

	u, err := svc.CreateUser(ctx, NewUser{Username: "frank", Password: "pw"})
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "frank", "pw")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	img, err := store.Create(ctx, u.ID, "a.png", buf.Bytes())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))

	_, err = fs.Get(ctx, img.StoragePath)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	var tokens int64
	require.NoError(t, db.Model(&models.AuthToken{}).Count(&tokens).Error)
	assert.Zero(t, tokens)

	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), ErrUserNotFound)
}

// secondDeleteFails lets the first Delete through and fails the second.
type secondDeleteFails struct {
	storage.Backend
	calls int
}

func (b *secondDeleteFails) Delete(ctx context.Context, key string) error {
	b.calls++
	if b.calls == 2 {
		return errors.New("bucket unavailable")
	}
	return b.Backend.Delete(ctx, key)
}

func TestDeleteUserCommitsRowsWhenReleaseFails(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	backend := &secondDeleteFails{Backend: fs}
	store := images.NewStore(db, backend, time.Second, zerolog.Nop())
	svc := NewService(db, store, zerolog.Nop())

	u, err := svc.CreateUser(ctx, NewUser{Username: "gina", Password: "pw"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	first, err := store.Create(ctx, u.ID, "a.png", buf.Bytes())
	require.NoError(t, err)
	second, err := store.Create(ctx, u.ID, "b.png", buf.Bytes())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.Equal(t, 2, backend.calls)

	var rows int64
	require.NoError(t, db.Model(&models.Image{}).Count(&rows).Error)
	assert.Zero(t, rows)
	_, err = svc.UserByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Keys are released in row order; the second object is left behind.
	_, err = fs.Get(ctx, first.StoragePath)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = fs.Get(ctx, second.StoragePath)
	assert.NoError(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("testpassword123", hash))
	assert.False(t, CheckPasswordHash("nope", hash))
}
