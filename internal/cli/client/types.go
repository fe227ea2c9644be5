package client

import "time"

// Product categories known to the storefront
const (
	CategoryLaptop          = "LAPTOP"
	CategoryPhone           = "PHONE"
	CategoryGamingEquipment = "GAMING_EQUIPMENT"
	CategorySmartDevices    = "SMART_DEVICES"
)

// DefaultCategories is shown when the catalog cannot be queried
var DefaultCategories = []string{CategoryLaptop, CategoryPhone, CategoryGamingEquipment, CategorySmartDevices}

// Order statuses
const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

// User represents a storefront account
type User struct {
	ID           int64  `json:"id" yaml:"id"`
	FirstName    string `json:"firstName" yaml:"firstName"`
	LastName     string `json:"lastName" yaml:"lastName"`
	Email        string `json:"email" yaml:"email"`
	Role         string `json:"role,omitempty" yaml:"role,omitempty"`
	CustomerType string `json:"customerType,omitempty" yaml:"customerType,omitempty"`
}

// Product represents a catalog item
type Product struct {
	ID            int64   `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name" validate:"required"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	Price         float64 `json:"price" yaml:"price" validate:"gt=0"`
	StockQuantity int     `json:"stockQuantity" yaml:"stockQuantity" validate:"gte=0"`
	Category      string  `json:"category" yaml:"category" validate:"required,oneof=LAPTOP PHONE GAMING_EQUIPMENT SMART_DEVICES"`
	ImageURL      string  `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// ProductDiscount is a product priced for a specific customer tier
type ProductDiscount struct {
	ID              int64   `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	OriginalPrice   float64 `json:"originalPrice" yaml:"originalPrice"`
	DiscountedPrice float64 `json:"discountedPrice" yaml:"discountedPrice"`
	ImageURL        string  `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Category        string  `json:"category" yaml:"category"`
}

// Cart holds the items a user intends to buy
type Cart struct {
	ID        int64      `json:"id" yaml:"id"`
	UserID    int64      `json:"userId" yaml:"userId"`
	CartItems []CartItem `json:"cartItems" yaml:"cartItems"`
}

// Total sums item prices at list price
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.CartItems {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// CartItem is one product line in a cart
type CartItem struct {
	ID       int64   `json:"id" yaml:"id"`
	CartID   int64   `json:"cartId" yaml:"cartId"`
	Product  Product `json:"product" yaml:"product"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// Address is a shipping address
type Address struct {
	ID         int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Street     string `json:"street" yaml:"street" validate:"required"`
	City       string `json:"city" yaml:"city" validate:"required"`
	PostalCode string `json:"postalCode" yaml:"postalCode" validate:"required"`
	Country    string `json:"country" yaml:"country" validate:"required"`
}

// Order is a placed order
type Order struct {
	ID          int64       `json:"id" yaml:"id"`
	UserID      int64       `json:"userId" yaml:"userId"`
	TotalPrice  float64     `json:"totalPrice" yaml:"totalPrice"`
	OrderStatus string      `json:"orderStatus" yaml:"orderStatus"`
	Address     *Address    `json:"address,omitempty" yaml:"address,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" yaml:"createdAt"`
	OrderItems  []OrderItem `json:"orderItems" yaml:"orderItems"`
}

// OrderItem is one product line in an order, priced at purchase time
type OrderItem struct {
	ID       int64   `json:"id" yaml:"id"`
	Product  Product `json:"product" yaml:"product"`
	Quantity int     `json:"quantity" yaml:"quantity"`
	Price    float64 `json:"price" yaml:"price"`
}

// LoginResponse is returned by the login endpoint
type LoginResponse struct {
	Token        string   `json:"jwtToken" yaml:"-"`
	Email        string   `json:"email" yaml:"email"`
	FirstName    string   `json:"firstName" yaml:"firstName"`
	LastName     string   `json:"lastName" yaml:"lastName"`
	CustomerType string   `json:"customerType" yaml:"customerType"`
	Roles        []string `json:"roles" yaml:"roles"`
}

// RegisterRequest creates a new account
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// ChangePasswordRequest changes the current user's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

// CartItemRequest adds a product to a cart
type CartItemRequest struct {
	CartID    int64 `json:"cartId" validate:"required,gt=0"`
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CheckoutRequest turns the user's cart into an order
type CheckoutRequest struct {
	UserID  int64   `json:"userId" validate:"required,gt=0"`
	Address Address `json:"address"`
}

// UserUpdate is the admin-editable part of a user
type UserUpdate struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
	CustomerType string `json:"customerType,omitempty" validate:"omitempty,oneof=REGULAR PREMIUM PLATINUM VIP"`
}

// OrderUpdate is the admin-editable part of an order
type OrderUpdate struct {
	TotalPrice  float64 `json:"totalPrice" validate:"gte=0"`
	OrderStatus string  `json:"orderStatus" validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// ProductFilter narrows a catalog query
type ProductFilter struct {
	Query    string
	Category string
	// Sort is "<field>_<direction>", e.g. "price_asc"
	Sort     string
	MinPrice *float64
	MaxPrice *float64
}
