package models

import (
	"sort"
	"time"
)

// ThumbnailSize is a thumbnail height in pixels. Heights are unique across
// the catalog and shared by every plan that grants them.
type ThumbnailSize struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Height    int       `json:"size" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"-"`
}

type Plan struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	Name               string          `json:"name" gorm:"not null;uniqueIndex;size:255"`
	Thumbnails         []ThumbnailSize `json:"thumbnails" gorm:"many2many:plan_thumbnails;constraint:OnDelete:CASCADE"`
	GrantsOriginal     bool            `json:"original_size" gorm:"not null;default:false"`
	GrantsExpiringLink bool            `json:"expiring_link" gorm:"not null;default:false"`
	CreatedAt          time.Time       `json:"-"`
	UpdatedAt          time.Time       `json:"-"`
}

// NoPlan is the capability set of a user without a plan: nothing.
var NoPlan = Plan{}

// Sizes returns the distinct allowed heights in ascending order.
func (p Plan) Sizes() []int {
	seen := make(map[int]struct{}, len(p.Thumbnails))
	sizes := make([]int, 0, len(p.Thumbnails))
	for _, t := range p.Thumbnails {
		if _, ok := seen[t.Height]; ok {
			continue
		}
		seen[t.Height] = struct{}{}
		sizes = append(sizes, t.Height)
	}
	sort.Ints(sizes)
	return sizes
}

func (p Plan) AllowsSize(height int) bool {
	for _, t := range p.Thumbnails {
		if t.Height == height {
			return true
		}
	}
	return false
}
