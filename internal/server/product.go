package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

// @Summary      List products
// @Description  List catalog products with search and pagination
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        search  query  string  false  "Search"
// @Param        page    query  int     false  "Page"
// @Param        limit   query  int     false  "Limit"
// @Success      200  {object}  catalogdomain.ListResponse
// @Router       /products [get]
func (s *Server) ListProducts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Pagination: query.Pagination,
		Search:     query.Search,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get product
// @Description  Fetch a single product by id
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path  string  true  "Product ID"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products/{productId} [get]
func (s *Server) GetProduct(c *gin.Context) {
	id, err := catalogdomain.ParseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, catalogdomain.ErrNotFound)
		return
	}

	product, err := s.catalogSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

type productRequest struct {
	Name       string                    `json:"name"`
	Dimensions *string                   `json:"dimensions"`
	Variations *catalogdomain.Variations `json:"variations"`
	ImagePath  *string                   `json:"image_path"`
	PDFPath    *string                   `json:"pdf_path"`
	DWGPath    *string                   `json:"dwg_path"`
}

// @Summary      Create product
// @Description  Create a catalog product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body productRequest true "Create Product Request"
// @Success      200  {object}  catalogdomain.Product
// @Router       /admin/products [post]
func (s *Server) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateRequest{
		Name:       req.Name,
		Dimensions: req.Dimensions,
		Variations: req.Variations,
		ImagePath:  req.ImagePath,
		PDFPath:    req.PDFPath,
		DWGPath:    req.DWGPath,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

type updateProductRequest struct {
	Name       *string                   `json:"name"`
	Dimensions *string                   `json:"dimensions"`
	Variations *catalogdomain.Variations `json:"variations"`
	ImagePath  *string                   `json:"image_path"`
	PDFPath    *string                   `json:"pdf_path"`
	DWGPath    *string                   `json:"dwg_path"`
}

// @Summary      Update product
// @Description  Update fields of a catalog product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path  string  true  "Product ID"
// @Param        request body updateProductRequest true "Update Product Request"
// @Success      200  {object}  catalogdomain.Product
// @Router       /admin/products/{productId} [put]
func (s *Server) UpdateProduct(c *gin.Context) {
	id, err := catalogdomain.ParseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, catalogdomain.ErrNotFound)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateRequest{
		ID:         id,
		Name:       req.Name,
		Dimensions: req.Dimensions,
		Variations: req.Variations,
		ImagePath:  req.ImagePath,
		PDFPath:    req.PDFPath,
		DWGPath:    req.DWGPath,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// @Summary      Delete product
// @Description  Delete a catalog product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path  string  true  "Product ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/products/{productId} [delete]
func (s *Server) DeleteProduct(c *gin.Context) {
	id, err := catalogdomain.ParseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, catalogdomain.ErrNotFound)
		return
	}

	if err := s.catalogSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
