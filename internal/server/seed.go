package server

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/techshop-dev/techshop/internal/auth"
	"github.com/techshop-dev/techshop/internal/models"
)

// Demo accounts created by Seed
const (
	SeedAdminEmail    = "admin@techshop.local"
	SeedAdminPassword = "admin123"
	SeedUserEmail     = "user@techshop.local"
	SeedUserPassword  = "user123"
)

var seedCatalog = []models.Product{
	{Name: "MacBook Pro 14", Description: "Apple M3 Pro, 18GB RAM, 512GB SSD", Price: 1999.99, StockQuantity: 12, Category: models.CategoryLaptop},
	{Name: "ThinkPad X1 Carbon", Description: "Lightweight business ultrabook", Price: 1649.00, StockQuantity: 8, Category: models.CategoryLaptop},
	{Name: "iPhone 15", Description: "6.1-inch display, 128GB", Price: 999.00, StockQuantity: 25, Category: models.CategoryPhone},
	{Name: "Galaxy S24", Description: "Samsung flagship with AI features", Price: 899.00, StockQuantity: 20, Category: models.CategoryPhone},
	{Name: "Razer Kraken Headset", Description: "Wired gaming headset with surround sound", Price: 129.99, StockQuantity: 40, Category: models.CategoryGamingEquipment},
	{Name: "Logitech G Pro Mouse", Description: "Wireless esports mouse", Price: 89.99, StockQuantity: 35, Category: models.CategoryGamingEquipment},
	{Name: "Écran Gaming Incurvé", Description: "Moniteur 27 pouces 165Hz", Price: 349.00, StockQuantity: 10, Category: models.CategoryGamingEquipment},
	{Name: "Nest Thermostat", Description: "Smart thermostat with energy savings", Price: 249.00, StockQuantity: 15, Category: models.CategorySmartDevices},
	{Name: "Philips Hue Starter Kit", Description: "Three smart bulbs and a bridge", Price: 179.99, StockQuantity: 18, Category: models.CategorySmartDevices},
}

// Seed fills an empty database with the demo accounts, their carts and a catalog.
// A database that already has users is left untouched.
func Seed(db *gorm.DB, zlog zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	accounts := []struct {
		user     models.User
		password string
	}{
		{models.User{FirstName: "Ada", LastName: "Admin", Email: SeedAdminEmail, Role: models.RoleAdmin, CustomerType: models.CustomerPlatinum}, SeedAdminPassword},
		{models.User{FirstName: "Ana", LastName: "Shopper", Email: SeedUserEmail, Role: models.RoleUser, CustomerType: models.CustomerPremium}, SeedUserPassword},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, account := range accounts {
			hash, err := auth.HashPassword(account.password)
			if err != nil {
				return err
			}
			user := account.user
			user.PasswordHash = hash
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", user.Email, err)
			}
			if err := tx.Create(&models.Cart{UserID: user.ID}).Error; err != nil {
				return fmt.Errorf("failed to create cart for %s: %w", user.Email, err)
			}
		}

		catalog := make([]models.Product, len(seedCatalog))
		copy(catalog, seedCatalog)
		return tx.Create(&catalog).Error
	})
	if err != nil {
		return err
	}

	zlog.Info().Int("users", len(accounts)).Int("products", len(seedCatalog)).Msg("Seeded database")
	return nil
}
