package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindBySKUs finds all products whose SKU is in the list
func (r *GormProductRepository) FindBySKUs(ctx context.Context, skus []string) ([]catalog.Product, error) {
	if len(skus) == 0 {
		return []catalog.Product{}, nil
	}
	normalized := make([]string, len(skus))
	for i, s := range skus {
		normalized[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("sku IN ?", normalized).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, ProductSortFields, "name"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error)
}

// SaveWithLock persists mutable fields using optimistic locking on version
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]interface{}{
			"stock":      product.Stock,
			"price":      product.Price,
			"active":     product.Active,
			"version":    product.Version,
			"updated_at": product.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ExistsBySKU checks whether a SKU is taken
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Categories lists the distinct categories of active products
func (r *GormProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("active = ? AND category <> ''", true).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "category":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("category = ?", s)
			}
		}
	}
	return query
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
