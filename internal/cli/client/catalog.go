package client

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const searchBasePath = "/elasticsearch/products"

// Products lists the whole catalog
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.Send(ctx, Get("/products", false), &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Product fetches a single product
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.Send(ctx, Get(fmt.Sprintf("/products/%d", id), false), &product); err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return &product, nil
}

// DiscountedProducts lists the catalog priced for the given user's customer tier
func (c *Client) DiscountedProducts(ctx context.Context, userID int64) ([]ProductDiscount, error) {
	var products []ProductDiscount
	if err := c.Send(ctx, Get(fmt.Sprintf("/products/discounted/%d", userID), false), &products); err != nil {
		return nil, fmt.Errorf("failed to list discounted products: %w", err)
	}
	return products, nil
}

// Categories derives the distinct categories present in the search index.
// It falls back to DefaultCategories when the index is unreachable or empty.
func (c *Client) Categories(ctx context.Context) []string {
	var products []Product
	if err := c.Send(ctx, Get(searchBasePath+"/all", false), &products); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to fetch categories, using defaults")
		return slices.Clone(DefaultCategories)
	}

	var categories []string
	for _, p := range products {
		if p.Category != "" && !slices.Contains(categories, p.Category) {
			categories = append(categories, p.Category)
		}
	}
	if len(categories) == 0 {
		return slices.Clone(DefaultCategories)
	}
	return categories
}

// DefaultSort orders results by ascending price
const DefaultSort = "price_asc"

// Values encodes the filter as search query parameters
func (f ProductFilter) Values() url.Values {
	params := url.Values{}
	if f.Query != "" {
		params.Set("query", f.Query)
	}
	if f.Category != "" {
		params.Set("category", f.Category)
	}

	sort := f.Sort
	if sort == "" {
		sort = DefaultSort
	}
	field, direction, _ := strings.Cut(sort, "_")
	if direction == "" {
		direction = "asc"
	}
	params.Set("sortBy", field)
	params.Set("sortOrder", direction)

	if f.MinPrice != nil {
		params.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		params.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	return params
}

// FilterProducts queries the search index with filters and sorting
func (c *Client) FilterProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return c.search(ctx, "/filter", filter.Values())
}

// Autocomplete returns name suggestions for a partial query
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	var suggestions []string
	req := Get(searchBasePath+"/autocomplete", false).WithQuery(url.Values{"query": {query}})
	if err := c.Send(ctx, req, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to fetch autocomplete: %w", err)
	}
	return suggestions, nil
}

// Search runs a full-text search
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	return c.search(ctx, "/search", url.Values{"query": {query}})
}

// FuzzySearch runs a typo-tolerant search
func (c *Client) FuzzySearch(ctx context.Context, query string) ([]Product, error) {
	return c.search(ctx, "/search-fuzzy", url.Values{"query": {query}})
}

// NormalizedSearch runs a case and accent insensitive search
func (c *Client) NormalizedSearch(ctx context.Context, query string) ([]Product, error) {
	return c.search(ctx, "/search-normalized", url.Values{"query": {query}})
}

// SearchAndSort runs a search ordered by sortBy/sortOrder
func (c *Client) SearchAndSort(ctx context.Context, query, sortBy, sortOrder string) ([]Product, error) {
	if sortBy == "" {
		sortBy = "price"
	}
	if sortOrder == "" {
		sortOrder = "asc"
	}
	return c.search(ctx, "/search-sort", url.Values{"query": {query}, "sortBy": {sortBy}, "sortOrder": {sortOrder}})
}

func (c *Client) search(ctx context.Context, endpoint string, params url.Values) ([]Product, error) {
	var products []Product
	req := Get(searchBasePath+endpoint, false).WithQuery(params)
	if err := c.Send(ctx, req, &products); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}
