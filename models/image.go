package models

import (
	"path"
	"time"
)

type Image struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     uint      `json:"owner" gorm:"not null;index"`
	Owner       User      `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	StoragePath string    `json:"-" gorm:"not null;size:512"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filename is the last element of the storage path; listings expose only
// this so the storage layout stays private.
func (i Image) Filename() string {
	return path.Base(i.StoragePath)
}

// All lists every model for AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&ThumbnailSize{},
		&Plan{},
		&User{},
		&AuthToken{},
		&Image{},
	}
}
