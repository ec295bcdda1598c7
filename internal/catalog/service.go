package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/db"
	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
)

const categoriesCacheKey = "catalog:categories:v1"

// ErrCategoryNotFound is returned when a category id has no row.
var ErrCategoryNotFound = errors.New("category not found")

type queryProvider interface {
	ListCategories(ctx context.Context) ([]dbgen.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (dbgen.Category, error)
	ListProductCategoryIDs(ctx context.Context, productIds []pgtype.UUID) ([]dbgen.ProductCategory, error)
}

// Category represents the public category payload.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// Service answers category lookups for the settings form and the fee calculator.
type Service struct {
	queries queryProvider
	cache   *Cache
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{
		queries: cfg.Queries,
		cache:   cfg.Cache,
		logger:  cfg.Logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// ListCategories returns every category, including those without products.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return readThrough(ctx, s.cache, s.logger, categoriesCacheKey, func(ctx context.Context) ([]Category, error) {
		rows, err := s.queries.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		result := make([]Category, 0, len(rows))
		for _, row := range rows {
			result = append(result, categoryFromRow(row))
		}
		return result, nil
	})
}

// InvalidateCategories drops the cached category list.
func (s *Service) InvalidateCategories(ctx context.Context) error {
	return s.cache.Forget(ctx, categoriesCacheKey)
}

// Category loads one category by id.
func (s *Service) Category(ctx context.Context, id int64) (Category, error) {
	row, err := s.queries.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return categoryFromRow(row), nil
}

func categoryFromRow(row dbgen.Category) Category {
	cat := Category{ID: row.ID, Name: row.Name, Slug: row.Slug}
	if row.ParentID.Valid {
		parent := row.ParentID.Int64
		cat.ParentID = &parent
	}
	return cat
}

// CategoryExists reports whether a category with id is stored.
func (s *Service) CategoryExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get category %d: %w", id, err)
	}
	return true, nil
}

// ProductCategoryIDs maps each product id to the ids of the categories it is
// directly assigned to. Products without categories are absent from the map.
func (s *Service) ProductCategoryIDs(ctx context.Context, productIDs []string) (map[string][]int64, error) {
	result := make(map[string][]int64, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	ids := make([]pgtype.UUID, 0, len(productIDs))
	for _, raw := range productIDs {
		id, err := db.UUID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	rows, err := s.queries.ListProductCategoryIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list product categories: %w", err)
	}
	for _, row := range rows {
		key := db.UUIDString(row.ProductID)
		result[key] = append(result[key], row.CategoryID)
	}
	return result, nil
}
