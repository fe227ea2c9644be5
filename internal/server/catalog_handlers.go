package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/techshop-dev/techshop/internal/models"
)

// ProductRequest represents a product create or replace request
type ProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"gt=0"`
	StockQuantity int     `json:"stockQuantity" binding:"gte=0"`
	Category      string  `json:"category" binding:"required" validate:"category"`
	ImageURL      string  `json:"imageUrl"`
}

// ProductDiscount is a product priced for a customer tier
type ProductDiscount struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountedPrice float64 `json:"discountedPrice"`
	ImageURL        string  `json:"imageUrl"`
	Category        string  `json:"category"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Server) allProducts(c *gin.Context) ([]models.Product, bool) {
	var products []models.Product
	if err := s.db.Order("id ASC").Find(&products).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return nil, false
	}
	return products, true
}

// @Router /api/products [get]
// @Success 200 {array} models.Product
func (s *Server) listProducts(c *gin.Context) {
	products, ok := s.allProducts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Router /api/products/{id} [get]
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]interface{}
func (s *Server) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := models.FindByID(s.db, id, &product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// @Router /api/products/discounted/{userId} [get]
// @Success 200 {array} ProductDiscount
func (s *Server) listDiscountedProducts(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	products, ok := s.allProducts(c)
	if !ok {
		return
	}

	rate := models.DiscountRate(user.CustomerType)
	discounted := make([]ProductDiscount, 0, len(products))
	for _, p := range products {
		discounted = append(discounted, ProductDiscount{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			OriginalPrice:   p.Price,
			DiscountedPrice: roundCents(p.Price * (1 - rate)),
			ImageURL:        p.ImageURL,
			Category:        p.Category,
		})
	}

	c.JSON(http.StatusOK, discounted)
}

func (s *Server) bindProduct(c *gin.Context) (*ProductRequest, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category: " + req.Category})
		return nil, false
	}
	return &req, true
}

func (r *ProductRequest) apply(p *models.Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.StockQuantity = r.StockQuantity
	p.Category = r.Category
	p.ImageURL = r.ImageURL
}

// @Router /api/products [post]
// @Param request body ProductRequest true "Product"
// @Success 201 {object} models.Product
func (s *Server) createProduct(c *gin.Context) {
	req, ok := s.bindProduct(c)
	if !ok {
		return
	}

	var product models.Product
	req.apply(&product)

	if err := s.db.Create(&product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	s.logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("Product created")
	c.JSON(http.StatusCreated, product)
}

// @Router /api/products/{id} [put]
// @Param request body ProductRequest true "Product"
// @Success 200 {object} models.Product
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	req, ok := s.bindProduct(c)
	if !ok {
		return
	}

	var product models.Product
	if err := models.FindByID(s.db, id, &product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	req.apply(&product)
	if err := s.db.Save(&product).Error; err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("Failed to update product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// @Router /api/products/{id} [delete]
// @Success 204
// @Failure 409 {object} map[string]interface{}
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := models.FindByID(s.db, id, &product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var ordered int64
	if err := s.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&ordered).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check product usage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if ordered > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Product is part of existing orders"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	s.logger.Info().Int64("product_id", id).Msg("Product deleted")
	c.Status(http.StatusNoContent)
}

// @Router /api/elasticsearch/products/all [get]
// @Success 200 {array} models.Product
func (s *Server) searchAll(c *gin.Context) {
	s.listProducts(c)
}

// @Router /api/elasticsearch/products/filter [get]
// @Param query query string false "Text to match"
// @Param category query string false "Category"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param sortBy query string false "price, name or stock"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {array} models.Product
func (s *Server) searchFilter(c *gin.Context) {
	minPrice, err := optionalFloat(c.Query("minPrice"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minPrice"})
		return
	}
	maxPrice, err := optionalFloat(c.Query("maxPrice"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxPrice"})
		return
	}

	products, ok := s.allProducts(c)
	if !ok {
		return
	}

	query := c.Query("query")
	category := c.Query("category")
	results := filterProducts(products, func(p *models.Product) bool {
		if query != "" && !matchNormalized(p, query) {
			return false
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			return false
		}
		if minPrice != nil && p.Price < *minPrice {
			return false
		}
		if maxPrice != nil && p.Price > *maxPrice {
			return false
		}
		return true
	})

	sortProducts(results, c.DefaultQuery("sortBy", "price"), c.DefaultQuery("sortOrder", "asc"))
	c.JSON(http.StatusOK, results)
}

// @Router /api/elasticsearch/products/autocomplete [get]
// @Param query query string true "Prefix"
// @Success 200 {array} string
func (s *Server) searchAutocomplete(c *gin.Context) {
	products, ok := s.allProducts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, autocomplete(products, c.Query("query")))
}

// @Router /api/elasticsearch/products/search [get]
// @Param query query string true "Text to match"
// @Success 200 {array} models.Product
func (s *Server) search(c *gin.Context) {
	s.runSearch(c, matchSubstring)
}

// @Router /api/elasticsearch/products/search-fuzzy [get]
// @Param query query string true "Text to match, typos tolerated"
// @Success 200 {array} models.Product
func (s *Server) searchFuzzy(c *gin.Context) {
	s.runSearch(c, matchFuzzy)
}

// @Router /api/elasticsearch/products/search-normalized [get]
// @Param query query string true "Text to match, case and accents ignored"
// @Success 200 {array} models.Product
func (s *Server) searchNormalized(c *gin.Context) {
	s.runSearch(c, matchNormalized)
}

// @Router /api/elasticsearch/products/search-sort [get]
// @Param query query string true "Text to match"
// @Param sortBy query string false "price, name or stock"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {array} models.Product
func (s *Server) searchSort(c *gin.Context) {
	results, ok := s.matching(c, matchSubstring)
	if !ok {
		return
	}
	sortProducts(results, c.DefaultQuery("sortBy", "price"), c.DefaultQuery("sortOrder", "asc"))
	c.JSON(http.StatusOK, results)
}

func (s *Server) runSearch(c *gin.Context, match func(*models.Product, string) bool) {
	results, ok := s.matching(c, match)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) matching(c *gin.Context, match func(*models.Product, string) bool) ([]models.Product, bool) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return nil, false
	}

	products, ok := s.allProducts(c)
	if !ok {
		return nil, false
	}

	return filterProducts(products, func(p *models.Product) bool {
		return match(p, query)
	}), true
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, errors.New("not a number")
	}
	return &v, nil
}
