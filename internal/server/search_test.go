package server

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techshop-dev/techshop/internal/models"
)

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Écran Gaming Incurvé": "ecran gaming incurve",
		"ÇA VA":                "ca va",
		"plain":                "plain",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, fold(in), in)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"laptop", "laptop", 0},
		{"lapotp", "laptop", 2},
		{"thinkpd", "thinkpad", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%s -> %s", tt.a, tt.b)
	}
}

func TestMatchers(t *testing.T) {
	ecran := &models.Product{Name: "Écran Gaming Incurvé", Description: "Moniteur 27 pouces", Category: models.CategoryGamingEquipment}
	thinkpad := &models.Product{Name: "ThinkPad X1 Carbon", Description: "Business ultrabook", Category: models.CategoryLaptop}

	assert.True(t, matchSubstring(thinkpad, "thinkpad"))
	assert.False(t, matchSubstring(ecran, "ecran"), "plain search keeps accents")
	assert.True(t, matchNormalized(ecran, "ÉCRAN gaming incurve"))

	assert.True(t, matchFuzzy(thinkpad, "thinkpd"))
	assert.True(t, matchFuzzy(thinkpad, "carbn ultrabok"))
	assert.True(t, matchFuzzy(ecran, "ecran"))
	assert.False(t, matchFuzzy(thinkpad, "iphone"))
	assert.False(t, matchFuzzy(thinkpad, "xz"), "short terms must match exactly or by prefix")
}

func TestSortProducts(t *testing.T) {
	products := []models.Product{
		{Name: "b", Price: 20, StockQuantity: 1},
		{Name: "A", Price: 30, StockQuantity: 3},
		{Name: "c", Price: 10, StockQuantity: 2},
	}

	sortProducts(products, "price", "asc")
	assert.Equal(t, []string{"c", "b", "A"}, productNames(products))

	sortProducts(products, "price", "DESC")
	assert.Equal(t, []string{"A", "b", "c"}, productNames(products))

	sortProducts(products, "name", "asc")
	assert.Equal(t, []string{"A", "b", "c"}, productNames(products))

	sortProducts(products, "stock", "desc")
	assert.Equal(t, []string{"A", "c", "b"}, productNames(products))

	sortProducts(products, "unknown", "asc")
	assert.Equal(t, []string{"c", "b", "A"}, productNames(products))
}

func TestAutocomplete(t *testing.T) {
	products := []models.Product{
		{Name: "Galaxy S24"},
		{Name: "Logitech G Pro Mouse"},
		{Name: "Gaming Chair"},
		{Name: "Écran Gaming Incurvé"},
	}

	suggestions := autocomplete(products, "ga")
	require.NotEmpty(t, suggestions)
	assert.Equal(t, []string{"Galaxy S24", "Gaming Chair"}, suggestions[:2], "prefix matches come first")
	assert.Contains(t, suggestions, "Écran Gaming Incurvé")

	assert.Equal(t, []string{"Écran Gaming Incurvé"}, autocomplete(products, "ecra"))
	assert.Empty(t, autocomplete(products, "  "))
	assert.NotNil(t, autocomplete(products, "zzz"))
}

func TestSearchEndpoints(t *testing.T) {
	env := newTestEnv(t)

	get := func(t *testing.T, path string, params url.Values) []models.Product {
		t.Helper()
		status, raw := env.apiCall(http.MethodGet, "/elasticsearch/products"+path+"?"+params.Encode(), "", nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		return decode[[]models.Product](t, raw)
	}

	t.Run("All", func(t *testing.T) {
		assert.Len(t, get(t, "/all", nil), len(seedCatalog))
	})

	t.Run("Search", func(t *testing.T) {
		results := get(t, "/search", url.Values{"query": {"galaxy"}})
		assert.Equal(t, []string{"Galaxy S24"}, productNames(results))
	})

	t.Run("SearchRequiresQuery", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodGet, "/elasticsearch/products/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Normalized", func(t *testing.T) {
		results := get(t, "/search-normalized", url.Values{"query": {"ECRAN gaming"}})
		assert.Equal(t, []string{"Écran Gaming Incurvé"}, productNames(results))
	})

	t.Run("Fuzzy", func(t *testing.T) {
		results := get(t, "/search-fuzzy", url.Values{"query": {"thinkpd"}})
		assert.Equal(t, []string{"ThinkPad X1 Carbon"}, productNames(results))
	})

	t.Run("NoMatchesIsEmptyArray", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodGet, "/elasticsearch/products/search?query=zzzz", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", string(raw))
	})

	t.Run("Sort", func(t *testing.T) {
		results := get(t, "/search-sort", url.Values{"query": {"PHONE"}, "sortBy": {"price"}, "sortOrder": {"desc"}})
		assert.Equal(t, []string{"iPhone 15", "Galaxy S24"}, productNames(results))
	})

	t.Run("Filter", func(t *testing.T) {
		results := get(t, "/filter", url.Values{
			"category":  {models.CategoryGamingEquipment},
			"maxPrice":  {"200"},
			"sortBy":    {"price"},
			"sortOrder": {"asc"},
		})
		assert.Equal(t, []string{"Logitech G Pro Mouse", "Razer Kraken Headset"}, productNames(results))

		results = get(t, "/filter", url.Values{"minPrice": {"1000"}})
		assert.Equal(t, []string{"ThinkPad X1 Carbon", "MacBook Pro 14"}, productNames(results))
	})

	t.Run("FilterRejectsBadPrice", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodGet, "/elasticsearch/products/filter?minPrice=cheap", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Autocomplete", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodGet, "/elasticsearch/products/autocomplete?query=mac", "", nil)
		require.Equal(t, http.StatusOK, status)
		suggestions := decode[[]string](t, raw)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "MacBook Pro 14", suggestions[0])
	})
}
