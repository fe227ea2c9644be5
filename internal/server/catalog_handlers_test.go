package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techshop-dev/techshop/internal/models"
)

func seededUser(t *testing.T, env *testEnv, email string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, env.srv.GetDB().Where("email = ?", email).First(&user).Error)
	return user
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.apiCall(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	products := decode[[]models.Product](t, raw)
	require.Len(t, products, len(seedCatalog))

	status, raw = env.apiCall(http.MethodGet, "/products/"+itoa(products[0].ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, products[0].Name, decode[models.Product](t, raw).Name)

	status, _ = env.apiCall(http.MethodGet, "/products/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.apiCall(http.MethodGet, "/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDiscountedProducts(t *testing.T) {
	env := newTestEnv(t)
	user := seededUser(t, env, SeedUserEmail)
	require.Equal(t, models.CustomerPremium, user.CustomerType)

	status, raw := env.apiCall(http.MethodGet, "/products/discounted/"+itoa(user.ID), "", nil)
	require.Equal(t, http.StatusOK, status)

	discounted := decode[[]ProductDiscount](t, raw)
	require.Len(t, discounted, len(seedCatalog))
	for _, p := range discounted {
		assert.InDelta(t, p.OriginalPrice*0.9, p.DiscountedPrice, 0.01, p.Name)
	}

	status, _ = env.apiCall(http.MethodGet, "/products/discounted/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDiscountRate(t *testing.T) {
	assert.Equal(t, 0.30, models.DiscountRate(models.CustomerVIP))
	assert.Equal(t, 0.20, models.DiscountRate(models.CustomerPlatinum))
	assert.Equal(t, 0.10, models.DiscountRate(models.CustomerPremium))
	assert.Zero(t, models.DiscountRate(models.CustomerRegular))
	assert.Zero(t, models.DiscountRate("UNKNOWN"))
}

func TestTierForOrderCount(t *testing.T) {
	tests := []struct {
		orders int64
		want   string
	}{
		{0, models.CustomerRegular},
		{1, models.CustomerPremium},
		{2, models.CustomerPremium},
		{3, models.CustomerPlatinum},
		{4, models.CustomerPlatinum},
		{5, models.CustomerVIP},
		{40, models.CustomerVIP},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, models.TierForOrderCount(tt.orders), "%d orders", tt.orders)
	}
}

func TestHigherTier(t *testing.T) {
	assert.Equal(t, models.CustomerPlatinum, models.HigherTier(models.CustomerPlatinum, models.CustomerPremium))
	assert.Equal(t, models.CustomerVIP, models.HigherTier(models.CustomerPlatinum, models.CustomerVIP))
	assert.Equal(t, models.CustomerRegular, models.HigherTier(models.CustomerRegular, models.CustomerRegular))
	assert.Equal(t, models.CustomerPremium, models.HigherTier("UNKNOWN", models.CustomerPremium))
}

func TestAdminProducts(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken()

	product := map[string]any{
		"name":          "Pixel Watch",
		"description":   "Smartwatch",
		"price":         349.0,
		"stockQuantity": 5,
		"category":      models.CategorySmartDevices,
	}

	t.Run("CreateRequiresAuth", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodPost, "/products", "", product)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("CreateRequiresAdmin", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodPost, "/products", env.userToken(), product)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("RejectsUnknownCategory", func(t *testing.T) {
		bad := map[string]any{"name": "Toaster", "price": 20.0, "category": "KITCHEN"}
		status, raw := env.apiCall(http.MethodPost, "/products", admin, bad)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, errorOf(t, raw), "KITCHEN")
	})

	t.Run("RejectsNonPositivePrice", func(t *testing.T) {
		bad := map[string]any{"name": "Freebie", "price": 0, "category": models.CategoryPhone}
		status, _ := env.apiCall(http.MethodPost, "/products", admin, bad)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	var created models.Product
	t.Run("Create", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodPost, "/products", admin, product)
		require.Equal(t, http.StatusCreated, status, string(raw))
		created = decode[models.Product](t, raw)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Pixel Watch", created.Name)
	})

	t.Run("Update", func(t *testing.T) {
		product["price"] = 299.0
		status, raw := env.apiCall(http.MethodPut, "/products/"+itoa(created.ID), admin, product)
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.Equal(t, 299.0, decode[models.Product](t, raw).Price)

		status, _ = env.apiCall(http.MethodPut, "/products/9999", admin, product)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Delete", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodDelete, "/products/"+itoa(created.ID), admin, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = env.apiCall(http.MethodGet, "/products/"+itoa(created.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}
