package locations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/models"
	apperrors "github.com/gatherly/gatherly/pkg/errors"
)

// ErrUnknownLocation indicates a referenced location id has no catalog row.
var ErrUnknownLocation = apperrors.New("LOCATION_UNKNOWN", "Unknown location", http.StatusBadRequest)

// Catalog resolves opaque location ids and serves autocomplete search. The
// catalog is inert reference data; events only ever point at its rows.
type Catalog interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]models.Location, error)
	Search(ctx context.Context, term string, limit int) ([]models.Location, error)
}

// GormCatalog is the database-backed Catalog implementation.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog constructs a catalog over the supplied database handle.
func NewGormCatalog(db *gorm.DB) (*GormCatalog, error) {
	if db == nil {
		return nil, errors.New("locations: db is required")
	}
	return &GormCatalog{db: db}, nil
}

// Resolve loads the catalog rows for the supplied ids. Every id must exist;
// an unknown id fails the whole call.
func (c *GormCatalog) Resolve(ctx context.Context, ids []int64) (map[int64]models.Location, error) {
	if len(ids) == 0 {
		return map[int64]models.Location{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Location
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("locations: resolve: %w", err)
	}

	resolved := make(map[int64]models.Location, len(rows))
	for _, row := range rows {
		resolved[row.ID] = row
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			return nil, ErrUnknownLocation
		}
	}
	return resolved, nil
}

// Search matches location titles against a fragment for autocomplete.
func (c *GormCatalog) Search(ctx context.Context, term string, limit int) ([]models.Location, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, apperrors.NewBadRequest("search term must be at least 2 characters")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pattern := "%" + strings.ToLower(term) + "%"

	var rows []models.Location
	err := c.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ?", pattern, pattern).
		Order("title ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("locations: search: %w", err)
	}
	return rows, nil
}
