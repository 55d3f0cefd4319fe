package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/stephanos-estetic/backend/internal/application/catalog"
	"github.com/stephanos-estetic/backend/internal/application/media"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the Products page and product administration
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	uploads        *media.UploadService
}

// NewProductHandler creates a new ProductHandler. uploads may be nil when
// object storage is disabled.
func NewProductHandler(productService *catalogapp.ProductService, uploads *media.UploadService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		uploads:        uploads,
	}
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Description  Active products with search, category filter and pagination
// @Tags         products
// @Produce      json
// @Param        search query string false "Search by name or SKU"
// @Param        category query string false "Category"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(name, price, created_at, stock)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList godoc
// @ID           adminListProducts
// @Summary      List all products (staff)
// @Tags         products
// @Produce      json
// @Param        active query bool false "Filter by active flag"
// @Success      200 {object} APIResponse[[]catalogapp.ProductResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [get]
func (h *ProductHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *ProductHandler) list(c *gin.Context, publicOnly bool) {
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter, publicOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pagination(filter.Page, filter.PageSize, 20)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// Categories godoc
// @ID           listProductCategories
// @Summary      List product categories
// @Tags         products
// @Produce      json
// @Success      200 {object} APIResponse[[]string]
// @Router       /products/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Get godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), id, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
// @ID           createProduct
// @Summary      Create a product (staff)
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update godoc
// @ID           updateProduct
// @Summary      Update a product (staff)
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Changes"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate godoc
// @ID           activateProduct
// @Summary      Activate a product (staff)
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Security     BearerAuth
// @Router       /admin/products/{id}/activate [post]
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate godoc
// @ID           deactivateProduct
// @Summary      Deactivate a product (staff)
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Security     BearerAuth
// @Router       /admin/products/{id}/deactivate [post]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RequestUpload godoc
// @ID           requestImageUpload
// @Summary      Presign an image upload (staff)
// @Description  Returns a presigned PUT URL for a product or service image
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        request body media.UploadRequest true "Upload"
// @Success      200 {object} APIResponse[media.UploadResponse]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/uploads [post]
func (h *ProductHandler) RequestUpload(c *gin.Context) {
	if h.uploads == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeFeatureDisabled, "Image uploads are not configured")
		return
	}
	var req media.UploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.uploads.RequestUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
