package links

import (
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-tiers/models"
)

// Builder turns capabilities into absolute URLs under hostBase.
type Builder struct {
	signer      *Signer
	hostBase    string
	downloadTTL time.Duration

	allowSession bool
	session      string
}

func NewBuilder(signer *Signer, hostBase string, downloadTTL time.Duration, allowSessionToken bool) *Builder {
	return &Builder{
		signer:       signer,
		hostBase:     hostBase,
		downloadTTL:  downloadTTL,
		allowSession: allowSessionToken,
	}
}

// WithSessionToken returns a copy that embeds the caller's session token in
// thumbnail URLs when session tokens are accepted by the download endpoint.
func (b *Builder) WithSessionToken(token string) *Builder {
	cp := *b
	cp.session = token
	return &cp
}

func (b *Builder) ThumbnailURL(img models.Image, height int) (string, error) {
	token := b.session
	if !b.allowSession || token == "" {
		var err error
		token, _, err = b.signer.Mint(img.OwnerID, KindThumbnail, img.ID, height, b.downloadTTL)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s/download/%d/%d/%s", b.hostBase, img.ID, height, token), nil
}

func (b *Builder) OriginalURL(img models.Image) (string, error) {
	token, _, err := b.signer.Mint(img.OwnerID, KindOriginal, img.ID, 0, b.downloadTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/original/%d/%s", b.hostBase, img.ID, token), nil
}

func (b *Builder) ExpiringURL(img models.Image, ttl time.Duration) (string, time.Time, error) {
	token, expiresAt, err := b.signer.Mint(img.OwnerID, KindExpiring, img.ID, 0, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s/shared/%s", b.hostBase, token), expiresAt, nil
}
