package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/techshop-dev/techshop/internal/models"
)

var errEmptyCart = errors.New("cart is empty")

// CartItemRequest represents adding a product to a cart
type CartItemRequest struct {
	CartID    int64 `json:"cartId" binding:"required,gt=0"`
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CartItemQuantityRequest represents a quantity change
type CartItemQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AddressRequest represents a shipping address
type AddressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// CheckoutRequest represents turning a cart into an order
type CheckoutRequest struct {
	UserID  int64          `json:"userId" binding:"required,gt=0"`
	Address AddressRequest `json:"address"`
}

// UpdateOrderRequest represents an admin edit of an order
type UpdateOrderRequest struct {
	TotalPrice  float64 `json:"totalPrice" binding:"gte=0"`
	OrderStatus string  `json:"orderStatus" binding:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// cartFor loads a user's cart, creating it on first use
func cartFor(db *gorm.DB, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).
		Preload("CartItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("CartItems.Product").
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID, CartItems: []models.CartItem{}}
		if err := db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}
	return &cart, nil
}

func deleteCartOf(tx *gorm.DB, userID int64) error {
	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&cart).Error
}

func deleteOrdersOf(tx *gorm.DB, userID int64) error {
	var orders []models.Order
	if err := tx.Where("user_id = ?", userID).Find(&orders).Error; err != nil {
		return err
	}
	for i := range orders {
		if err := removeOrder(tx, &orders[i]); err != nil {
			return err
		}
	}
	return nil
}

func removeOrder(tx *gorm.DB, order *models.Order) error {
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(order).Error; err != nil {
		return err
	}
	if order.AddressID != nil {
		return tx.Delete(&models.Address{}, *order.AddressID).Error
	}
	return nil
}

func loadOrders(db *gorm.DB) *gorm.DB {
	return db.Preload("Address").
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OrderItems.Product").
		Order("id DESC")
}

// @Router /api/carts/user/{userId} [get]
// @Success 200 {object} models.Cart
func (s *Server) getUserCart(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if _, ok := requireOwner(c, s.logger, userID); !ok {
		return
	}

	cart, err := cartFor(s.db, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load cart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// @Router /api/cart-items [post]
// @Param request body CartItemRequest true "Cart item"
// @Success 201 {object} models.CartItem
func (s *Server) addCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cart models.Cart
	if err := models.FindByID(s.db, req.CartID, &cart); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}
	if _, ok := requireOwner(c, s.logger, cart.UserID); !ok {
		return
	}

	var product models.Product
	if err := models.FindByID(s.db, req.ProductID, &product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Adding a product already in the cart increases its quantity
	var item models.CartItem
	err := s.db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: req.Quantity}
	default:
		s.logger.Error().Err(err).Msg("Failed to look up cart item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	if item.Quantity > product.StockQuantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock"})
		return
	}

	if err := s.db.Omit("Product").Save(&item).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to save cart item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	item.Product = product
	c.JSON(http.StatusCreated, item)
}

// ownedCartItem loads a cart item and checks it belongs to the caller
func (s *Server) ownedCartItem(c *gin.Context) (*models.CartItem, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var item models.CartItem
	if err := models.FindByIDWithPreload(s.db, id, &item, "Product"); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return nil, false
	}

	var cart models.Cart
	if err := models.FindByID(s.db, item.CartID, &cart); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return nil, false
	}
	if _, ok := requireOwner(c, s.logger, cart.UserID); !ok {
		return nil, false
	}
	return &item, true
}

// @Router /api/cart-items/{id} [put]
// @Param request body CartItemQuantityRequest true "Quantity"
// @Success 200 {object} models.CartItem
func (s *Server) updateCartItem(c *gin.Context) {
	var req CartItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := s.ownedCartItem(c)
	if !ok {
		return
	}

	if req.Quantity > item.Product.StockQuantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock"})
		return
	}

	if err := s.db.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("quantity", req.Quantity).Error; err != nil {
		s.logger.Error().Err(err).Int64("item_id", item.ID).Msg("Failed to update cart item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	item.Quantity = req.Quantity
	c.JSON(http.StatusOK, item)
}

// @Router /api/cart-items/{id} [delete]
// @Success 204
func (s *Server) deleteCartItem(c *gin.Context) {
	item, ok := s.ownedCartItem(c)
	if !ok {
		return
	}

	if err := s.db.Delete(&models.CartItem{}, item.ID).Error; err != nil {
		s.logger.Error().Err(err).Int64("item_id", item.ID).Msg("Failed to delete cart item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Checkout
// @Description Turns the user's cart into a PENDING order priced for the tier earned by past orders and empties the cart
// @Router /api/orders/checkout [post]
// @Param request body CheckoutRequest true "Checkout"
// @Success 201 {object} models.Order
// @Failure 400 {object} map[string]interface{}
func (s *Server) checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := requireOwner(c, s.logger, req.UserID); !ok {
		return
	}

	var user models.User
	if err := models.FindByID(s.db, req.UserID, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	previousTier := user.CustomerType
	tier := previousTier

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := cartFor(tx, user.ID)
		if err != nil {
			return err
		}
		if len(cart.CartItems) == 0 {
			return errEmptyCart
		}

		// Orders placed so far decide the tier this one is priced at. Tiers never go down.
		var placed int64
		if err := tx.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&placed).Error; err != nil {
			return err
		}
		tier = models.HigherTier(previousTier, models.TierForOrderCount(placed))
		if tier != previousTier {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("customer_type", tier).Error; err != nil {
				return err
			}
		}
		rate := models.DiscountRate(tier)

		address := models.Address{
			Street:     req.Address.Street,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}

		order = models.Order{
			UserID:      user.ID,
			OrderStatus: models.OrderPending,
			AddressID:   &address.ID,
		}
		if err := tx.Omit("Address", "OrderItems").Create(&order).Error; err != nil {
			return err
		}

		var total float64
		for _, ci := range cart.CartItems {
			price := roundCents(ci.Product.Price * (1 - rate))
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				Price:     price,
			}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return err
			}
			total += price * float64(ci.Quantity)

			if err := tx.Model(&models.Product{}).Where("id = ?", ci.ProductID).
				Update("stock_quantity", gorm.Expr("MAX(stock_quantity - ?, 0)", ci.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Update("total_price", roundCents(total)).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if errors.Is(err, errEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}

	if err := loadOrders(s.db).Where("id = ?", order.ID).First(&order).Error; err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("Failed to reload order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}

	if tier != previousTier {
		s.logger.Info().Int64("user_id", user.ID).Str("from", previousTier).Str("to", tier).Msg("Customer promoted")
	}
	s.logger.Info().Int64("order_id", order.ID).Int64("user_id", user.ID).Float64("total", order.TotalPrice).Msg("Order placed")
	c.JSON(http.StatusCreated, order)
}

// @Summary List orders
// @Description Admins see every order, other users their own
// @Router /api/orders [get]
// @Success 200 {array} models.Order
func (s *Server) listOrders(c *gin.Context) {
	session, _ := GetSessionData(c)

	query := loadOrders(s.db)
	if !session.IsAdmin {
		query = query.Where("user_id = ?", session.UserID)
	}

	s.respondOrders(c, query)
}

// @Router /api/users/{id}/orders [get]
// @Success 200 {array} models.Order
func (s *Server) listUserOrders(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := requireOwner(c, s.logger, userID); !ok {
		return
	}

	s.respondOrders(c, loadOrders(s.db).Where("user_id = ?", userID))
}

func (s *Server) respondOrders(c *gin.Context, query *gorm.DB) {
	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// @Router /api/orders/{id} [get]
// @Success 200 {object} models.Order
// @Failure 404 {object} map[string]interface{}
func (s *Server) getOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := loadOrders(s.db).Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	// Other users' orders are reported missing rather than forbidden
	session, _ := GetSessionData(c)
	if order.UserID != session.UserID && !session.IsAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// @Router /api/orders/{id} [put]
// @Param request body UpdateOrderRequest true "Order update"
// @Success 200 {object} models.Order
func (s *Server) updateOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order
	if err := models.FindByID(s.db, id, &order); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	updates := map[string]interface{}{
		"order_status": req.OrderStatus,
		"total_price":  req.TotalPrice,
	}
	if err := s.db.Model(&order).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("Failed to update order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	if err := loadOrders(s.db).Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	s.logger.Info().Int64("order_id", id).Str("status", req.OrderStatus).Msg("Order updated")
	c.JSON(http.StatusOK, order)
}

// @Router /api/orders/{id} [delete]
// @Success 204
func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := models.FindByID(s.db, id, &order); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error { return removeOrder(tx, &order) }); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("Failed to delete order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	s.logger.Info().Int64("order_id", id).Msg("Order deleted")
	c.Status(http.StatusNoContent)
}
