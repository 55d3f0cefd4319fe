package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}

	product, err := catalog.NewProduct(req.SKU, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Name, req.Description, req.Category, req.ImageURL); err != nil {
		return nil, err
	}
	if req.Stock > 0 {
		if err := product.SetStock(req.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product. Inactive products are hidden unless includeInactive is set.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active && !includeInactive {
		return nil, shared.ErrNotFound
	}

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with filtering and pagination.
// Public listings only ever see active products.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter, publicOnly bool) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]interface{}),
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	switch {
	case publicOnly:
		domainFilter.Filters["active"] = true
	case filter.Active != nil:
		domainFilter.Filters["active"] = *filter.Active
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductResponses(products), total, nil
}

// Categories lists the categories of active products
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, description, category, imageURL := product.Name, product.Description, product.Category, product.ImageURL
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Category != nil {
		category = *req.Category
	}
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	if err := product.Update(name, description, category, imageURL); err != nil {
		return nil, err
	}
	if req.Price != nil {
		if err := product.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Activate makes a product purchasable
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Activate)
}

// Deactivate hides a product from the shop
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Deactivate)
}

func (s *ProductService) changeStatus(ctx context.Context, id uuid.UUID, change func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}
