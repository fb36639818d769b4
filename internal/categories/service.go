package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/validation"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// List returns every category ordered by name.
func (s *Service) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Create adds a category. Failures are reported as full messages under
// "name", e.g. "Name can't be blank".
func (s *Service) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	errs := validation.Errors{}

	if name == "" {
		errs.Add("name", validation.FullMessage("name", validation.MsgBlank))
		return nil, errs
	}

	category := &models.Category{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("checking name: %w", err)
		}
		if count > 0 {
			errs.Add("name", validation.FullMessage("name", validation.MsgTaken))
			return errs
		}
		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				errs.Add("name", validation.FullMessage("name", validation.MsgTaken))
				return errs
			}
			return fmt.Errorf("creating category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// DefaultNames are the categories every fresh installation starts with.
var DefaultNames = []string{"Tech", "Ruby on Rails"}

// Seed makes sure each named category exists and returns how many were
// created.
func (s *Service) Seed(ctx context.Context, names ...string) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			var existing []models.Category
			if err := tx.Where("name = ?", name).Limit(1).Find(&existing).Error; err != nil {
				return fmt.Errorf("looking up category %q: %w", name, err)
			}
			if len(existing) > 0 {
				continue
			}
			if err := tx.Create(&models.Category{Name: name}).Error; err != nil {
				return fmt.Errorf("seeding category %q: %w", name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
