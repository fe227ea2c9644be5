package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer tiers
const (
	CustomerRegular  = "REGULAR"
	CustomerPremium  = "PREMIUM"
	CustomerPlatinum = "PLATINUM"
	CustomerVIP      = "VIP"
)

// Roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Order statuses
const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

// Categories
const (
	CategoryLaptop          = "LAPTOP"
	CategoryPhone           = "PHONE"
	CategoryGamingEquipment = "GAMING_EQUIPMENT"
	CategorySmartDevices    = "SMART_DEVICES"
)

// BaseModel provides common fields for all models
type BaseModel struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Config represents the global configuration of the backend.
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Generated on first start unless JWT_SECRET is set
}

// User represents a storefront account
type User struct {
	BaseModel
	FirstName    string `json:"firstName" gorm:"not null"`
	LastName     string `json:"lastName" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"not null;default:USER"`
	CustomerType string `json:"customerType" gorm:"not null;default:REGULAR"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Roles returns the user's roles as carried in tokens
func (u *User) Roles() []string {
	return []string{u.Role}
}

// Product represents a catalog item
type Product struct {
	BaseModel
	Name          string  `json:"name" gorm:"not null;index"`
	Description   string  `json:"description" gorm:"type:text"`
	Price         float64 `json:"price" gorm:"not null"`
	StockQuantity int     `json:"stockQuantity" gorm:"not null;default:0"`
	Category      string  `json:"category" gorm:"not null;index"`
	ImageURL      string  `json:"imageUrl"`
}

// Cart holds the items a user intends to buy. Every user has exactly one.
type Cart struct {
	BaseModel
	UserID    int64      `json:"userId" gorm:"uniqueIndex;not null"`
	CartItems []CartItem `json:"cartItems" gorm:"constraint:OnDelete:CASCADE"`
}

// CartItem is one product line in a cart
type CartItem struct {
	BaseModel
	CartID    int64   `json:"cartId" gorm:"not null;index"`
	ProductID int64   `json:"productId" gorm:"not null"`
	Product   Product `json:"product" gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int     `json:"quantity" gorm:"not null"`
}

// Address is a shipping address
type Address struct {
	BaseModel
	Street     string `json:"street" gorm:"not null"`
	City       string `json:"city" gorm:"not null"`
	PostalCode string `json:"postalCode" gorm:"not null"`
	Country    string `json:"country" gorm:"not null"`
}

// Order is a placed order
type Order struct {
	BaseModel
	UserID      int64       `json:"userId" gorm:"not null;index"`
	TotalPrice  float64     `json:"totalPrice" gorm:"not null"`
	OrderStatus string      `json:"orderStatus" gorm:"not null;default:PENDING"`
	AddressID   *int64      `json:"-"`
	Address     *Address    `json:"address,omitempty"`
	OrderItems  []OrderItem `json:"orderItems" gorm:"constraint:OnDelete:CASCADE"`
}

// OrderItem is one product line in an order, priced at purchase time
type OrderItem struct {
	BaseModel
	OrderID   int64   `json:"orderId" gorm:"not null;index"`
	ProductID int64   `json:"productId" gorm:"not null"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	Price     float64 `json:"price" gorm:"not null"`
}

// DiscountRate returns the price reduction for a customer tier
func DiscountRate(customerType string) float64 {
	switch customerType {
	case CustomerVIP:
		return 0.30
	case CustomerPlatinum:
		return 0.20
	case CustomerPremium:
		return 0.10
	default:
		return 0
	}
}

var tierRank = map[string]int{
	CustomerRegular:  0,
	CustomerPremium:  1,
	CustomerPlatinum: 2,
	CustomerVIP:      3,
}

// TierForOrderCount returns the tier a customer earns with n orders already placed
func TierForOrderCount(n int64) string {
	switch {
	case n >= 5:
		return CustomerVIP
	case n >= 3:
		return CustomerPlatinum
	case n >= 1:
		return CustomerPremium
	default:
		return CustomerRegular
	}
}

// HigherTier returns whichever of a and b grants the larger discount.
// Unknown tiers rank as REGULAR.
func HigherTier(a, b string) string {
	if tierRank[b] > tierRank[a] {
		return b
	}
	return a
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &Product{}, &Cart{}, &CartItem{}, &Address{}, &Order{}, &OrderItem{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by numeric ID
func FindByID[T any](db *gorm.DB, id int64, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id int64, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
