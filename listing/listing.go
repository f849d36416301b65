// Package listing turns a user's images and plan into the link records
// returned by the image list endpoint.
package listing

import (
	"fmt"
	"sort"
	"time"

	"github.com/krishkalaria12/snap-tiers/models"
)

// LinkMinter builds the absolute URLs handed out in a listing.
// *links.Builder satisfies it.
type LinkMinter interface {
	ThumbnailURL(img models.Image, height int) (string, error)
	OriginalURL(img models.Image) (string, error)
	ExpiringURL(img models.Image, ttl time.Duration) (string, time.Time, error)
}

type ThumbnailLink struct {
	Label  string `json:"label"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Entry is one image in a listing. Optional links are nil when the plan
// does not grant them.
type Entry struct {
	ID          uint            `json:"id"`
	Image       string          `json:"image"`
	Thumbnails  []ThumbnailLink `json:"thumbnails"`
	OriginalURL *string         `json:"original image,omitempty"`
	ExpiringURL *string         `json:"expiring link,omitempty"`
}

func Label(height int) string {
	return fmt.Sprintf("Thumbnail height %dpx", height)
}

// Assemble builds one entry per image, newest image first. expiringTTL is
// the lifetime of the expiring links minted for plans that grant them.
func Assemble(imgs []models.Image, plan models.Plan, minter LinkMinter, expiringTTL time.Duration) ([]Entry, error) {
	sorted := make([]models.Image, len(imgs))
	copy(sorted, imgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	sizes := plan.Sizes()
	entries := make([]Entry, 0, len(sorted))
	for _, img := range sorted {
		entry := Entry{
			ID:         img.ID,
			Image:      img.Filename(),
			Thumbnails: make([]ThumbnailLink, 0, len(sizes)),
		}

		for _, h := range sizes {
			url, err := minter.ThumbnailURL(img, h)
			if err != nil {
				return nil, fmt.Errorf("listing: thumbnail link for %d: %w", img.ID, err)
			}
			entry.Thumbnails = append(entry.Thumbnails, ThumbnailLink{Label: Label(h), Height: h, URL: url})
		}

		if plan.GrantsOriginal {
			url, err := minter.OriginalURL(img)
			if err != nil {
				return nil, fmt.Errorf("listing: original link for %d: %w", img.ID, err)
			}
			entry.OriginalURL = &url
		}

		if plan.GrantsExpiringLink {
			url, _, err := minter.ExpiringURL(img, expiringTTL)
			if err != nil {
				return nil, fmt.Errorf("listing: expiring link for %d: %w", img.ID, err)
			}
			entry.ExpiringURL = &url
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
