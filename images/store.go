// Package images keeps image metadata rows and their backing bytes in step.
package images

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/krishkalaria12/snap-tiers/storage"
	"github.com/krishkalaria12/snap-tiers/thumbnail"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("images: image not found")
	ErrInvalidImage = errors.New("images: upload is not a valid image")
)

const (
	uploadPath    = "images"
	maxNameLength = 64
)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
	"tiff": ".tiff",
}

type Store struct {
	db      *gorm.DB
	backend storage.Backend
	timeout time.Duration
	log     zerolog.Logger

	maxWidth  int
	maxHeight int
}

func NewStore(db *gorm.DB, backend storage.Backend, timeout time.Duration, log zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = 50 * time.Second
	}
	return &Store{
		db:      db,
		backend: backend,
		timeout: timeout,
		log:     log.With().Str("component", "images").Logger(),

		maxWidth:  thumbnail.MaxImageWidth,
		maxHeight: thumbnail.MaxImageHeight,
	}
}

// WithMaxDimensions sets the largest upload accepted, in pixels.
// Non-positive values keep the defaults.
func (s *Store) WithMaxDimensions(width, height int) *Store {
	if width > 0 {
		s.maxWidth = width
	}
	if height > 0 {
		s.maxHeight = height
	}
	return s
}

// Create fully decodes the upload within the size limits, writes its bytes
// and records the image.
func (s *Store) Create(ctx context.Context, ownerID uint, filename string, data []byte) (*models.Image, error) {
	info, err := thumbnail.Validate(data, s.maxWidth, s.maxHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	ext, ok := extensions[info.Format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, info.Format)
	}

	key := path.Join(uploadPath, fmt.Sprintf("%d", ownerID), uuid.NewString()+"_"+safeName(filename, ext))

	putCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	storedKey, err := s.backend.Put(putCtx, key, data, "image/"+info.Format)
	if err != nil {
		return nil, fmt.Errorf("images: store bytes: %w", err)
	}

	img := models.Image{OwnerID: ownerID, StoragePath: storedKey}
	if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
		if delErr := s.backend.Delete(context.WithoutCancel(ctx), storedKey); delErr != nil {
			s.log.Error().Err(delErr).Str("key", storedKey).Msg("orphaned object after failed insert")
		}
		return nil, fmt.Errorf("images: save record: %w", err)
	}

	s.log.Info().
		Uint("image_id", img.ID).
		Uint("owner_id", ownerID).
		Str("format", info.Format).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("image stored")
	return &img, nil
}

// ListByOwner returns the owner's images, most recent first.
func (s *Store) ListByOwner(ctx context.Context, ownerID uint) ([]models.Image, error) {
	var imgs []models.Image
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id DESC").Find(&imgs).Error; err != nil {
		return nil, fmt.Errorf("images: list for owner %d: %w", ownerID, err)
	}
	return imgs, nil
}

// ListAll is the administrative listing across owners.
func (s *Store) ListAll(ctx context.Context) ([]models.Image, error) {
	var imgs []models.Image
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&imgs).Error; err != nil {
		return nil, fmt.Errorf("images: list all: %w", err)
	}
	return imgs, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	err := s.db.WithContext(ctx).First(&img, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("images: get %d: %w", id, err)
	}
	return &img, nil
}

// Open reads the original bytes of img.
func (s *Store) Open(ctx context.Context, img *models.Image) ([]byte, error) {
	getCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.backend.Get(getCtx, img.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("images: open %d: %w", img.ID, err)
	}
	return data, nil
}

// Delete removes an owned image row and its bytes in one transaction; the
// row survives when the bytes cannot be released.
func (s *Store) Delete(ctx context.Context, ownerID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.Image
		err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&img).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("images: load %d: %w", id, err)
		}
		return s.deleteTx(ctx, tx, &img)
	})
}

// DeleteAllForOwner deletes every image row of ownerID inside tx and returns
// the storage keys they referenced. The caller passes the keys to Release
// once tx has committed, so a rollback never leaves rows without bytes.
func (s *Store) DeleteAllForOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]string, error) {
	var imgs []models.Image
	if err := tx.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&imgs).Error; err != nil {
		return nil, fmt.Errorf("images: list for owner %d: %w", ownerID, err)
	}
	if len(imgs) == 0 {
		return nil, nil
	}

	if err := tx.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Image{}).Error; err != nil {
		return nil, fmt.Errorf("images: delete records of owner %d: %w", ownerID, err)
	}

	keys := make([]string, 0, len(imgs))
	for _, img := range imgs {
		keys = append(keys, img.StoragePath)
	}
	return keys, nil
}

// Release deletes the bytes behind keys whose rows are already gone. Failures
// leave orphaned objects, which are logged; the count of released keys is
// returned.
func (s *Store) Release(ctx context.Context, keys []string) int {
	released := 0
	for _, key := range keys {
		delCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.backend.Delete(delCtx, key)
		cancel()
		if err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("orphaned object after delete")
			continue
		}
		released++
	}
	return released
}

func (s *Store) deleteTx(ctx context.Context, tx *gorm.DB, img *models.Image) error {
	if err := tx.Delete(img).Error; err != nil {
		return fmt.Errorf("images: delete record %d: %w", img.ID, err)
	}

	delCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.backend.Delete(delCtx, img.StoragePath); err != nil {
		return fmt.Errorf("images: release bytes of %d: %w", img.ID, err)
	}

	s.log.Info().Uint("image_id", img.ID).Uint("owner_id", img.OwnerID).Msg("image deleted")
	return nil
}

// safeName keeps the readable part of an uploaded filename and forces the
// extension of the detected format.
func safeName(filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range base {
		if b.Len() >= maxNameLength {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "image"
	}
	return name + ext
}
