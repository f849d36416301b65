package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishkalaria12/snap-tiers/models"
	"gorm.io/gorm"
)

type PlanSpec struct {
	Name               string
	Sizes              []int
	GrantsOriginal     bool
	GrantsExpiringLink bool
}

// DefaultPlans are the tiers every installation starts with.
func DefaultPlans() []PlanSpec {
	return []PlanSpec{
		{Name: "Basic", Sizes: []int{200}},
		{Name: "Premium", Sizes: []int{200, 400}, GrantsOriginal: true},
		{Name: "Enterprise", Sizes: []int{200, 400}, GrantsOriginal: true, GrantsExpiringLink: true},
	}
}

type SeedResult struct {
	Plan    string
	Created bool
}

// SeedDefaultPlans creates the default plans that do not exist yet. Existing
// plans keep their flags but gain any missing default sizes.
func (c *Catalog) SeedDefaultPlans(ctx context.Context) ([]SeedResult, error) {
	return c.Seed(ctx, DefaultPlans())
}

func (c *Catalog) Seed(ctx context.Context, specs []PlanSpec) ([]SeedResult, error) {
	results := make([]SeedResult, 0, len(specs))

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range specs {
			var plan models.Plan
			created := false
			err := tx.Where("name = ?", spec.Name).Take(&plan).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				plan = models.Plan{
					Name:               spec.Name,
					GrantsOriginal:     spec.GrantsOriginal,
					GrantsExpiringLink: spec.GrantsExpiringLink,
				}
				if err := tx.Create(&plan).Error; err != nil {
					return fmt.Errorf("plan %s: %w", spec.Name, err)
				}
				created = true
			case err != nil:
				return fmt.Errorf("plan %s: %w", spec.Name, err)
			}

			sizes := make([]models.ThumbnailSize, 0, len(spec.Sizes))
			for _, height := range spec.Sizes {
				size := models.ThumbnailSize{Height: height}
				if err := tx.Where(models.ThumbnailSize{Height: height}).FirstOrCreate(&size).Error; err != nil {
					return fmt.Errorf("size %d: %w", height, err)
				}
				sizes = append(sizes, size)
			}

			if len(sizes) > 0 {
				// Append skips pairs already in the join table.
				if err := tx.Model(&plan).Association("Thumbnails").Append(sizes); err != nil {
					return fmt.Errorf("plan %s sizes: %w", spec.Name, err)
				}
			}

			results = append(results, SeedResult{Plan: spec.Name, Created: created})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: seed plans: %w", err)
	}

	for _, r := range results {
		if r.Created {
			c.log.Info().Str("plan", r.Plan).Msg("created default plan")
		} else {
			c.log.Warn().Str("plan", r.Plan).Msg("plan already exists")
		}
	}
	return results, nil
}
