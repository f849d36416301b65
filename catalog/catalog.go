// Package catalog owns plans and the thumbnail size catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound  = errors.New("catalog: plan not found")
	ErrSizeNotFound  = errors.New("catalog: thumbnail size not found")
	ErrDuplicateSize = errors.New("catalog: thumbnail size already exists")
	ErrInvalidSize   = errors.New("catalog: thumbnail size must be a positive integer")
	ErrUserNotFound  = errors.New("catalog: user not found")
)

type Catalog struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(db *gorm.DB, log zerolog.Logger) *Catalog {
	return &Catalog{db: db, log: log.With().Str("component", "catalog").Logger()}
}

// ResolvePlan loads a plan and its sizes by unique name.
func (c *Catalog) ResolvePlan(ctx context.Context, name string) (*models.Plan, error) {
	var plan models.Plan
	err := c.db.WithContext(ctx).
		Preload("Thumbnails").
		Where("name = ?", name).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve plan %q: %w", name, err)
	}
	return &plan, nil
}

func (c *Catalog) Plans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.db.WithContext(ctx).Preload("Thumbnails").Order("name").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("catalog: list plans: %w", err)
	}
	return plans, nil
}

// ThumbnailSizes lists the catalog, newest first.
func (c *Catalog) ThumbnailSizes(ctx context.Context) ([]models.ThumbnailSize, error) {
	var sizes []models.ThumbnailSize
	if err := c.db.WithContext(ctx).Order("id DESC").Find(&sizes).Error; err != nil {
		return nil, fmt.Errorf("catalog: list sizes: %w", err)
	}
	return sizes, nil
}

func (c *Catalog) CreateThumbnailSize(ctx context.Context, height int) (*models.ThumbnailSize, error) {
	if height <= 0 {
		return nil, ErrInvalidSize
	}

	size := models.ThumbnailSize{Height: height}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ThumbnailSize{}).Where("height = ?", height).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateSize
		}
		return tx.Create(&size).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSize) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: create size %d: %w", height, err)
	}

	c.log.Info().Int("height", height).Msg("thumbnail size created")
	return &size, nil
}

// DeleteThumbnailSize removes a size; plans referencing it lose it.
func (c *Catalog) DeleteThumbnailSize(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM plan_thumbnails WHERE thumbnail_size_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ThumbnailSize{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSizeNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrSizeNotFound) {
		return fmt.Errorf("catalog: delete size %d: %w", id, err)
	}
	return err
}

// AssignPlan sets the plan of a user. An empty name removes the plan.
func (c *Catalog) AssignPlan(ctx context.Context, userID uint, planName string) (*models.User, error) {
	var planID *uint
	if name := strings.TrimSpace(planName); name != "" {
		plan, err := c.ResolvePlan(ctx, name)
		if err != nil {
			return nil, err
		}
		planID = &plan.ID
	}

	res := c.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("plan_id", planID)
	if res.Error != nil {
		return nil, fmt.Errorf("catalog: assign plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := c.db.WithContext(ctx).Preload("Plan.Thumbnails").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("catalog: reload user: %w", err)
	}
	c.log.Info().Uint("user_id", userID).Str("plan", planName).Msg("plan assigned")
	return &user, nil
}
