package client

import (
	"context"
	"fmt"
)

// Users lists all accounts (admin only)
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Send(ctx, Get("/users", true), &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser edits an account (admin only)
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) error {
	if err := c.validateRequest(update); err != nil {
		return err
	}
	if err := c.Send(ctx, Put(fmt.Sprintf("/users/%d", id), update, true), nil); err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes an account (admin only)
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.Send(ctx, Delete(fmt.Sprintf("/users/%d", id), true), nil); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

// CreateProduct adds a product to the catalog (admin only)
func (c *Client) CreateProduct(ctx context.Context, product Product) (*Product, error) {
	if err := c.validateRequest(product); err != nil {
		return nil, err
	}

	var created Product
	if err := c.Send(ctx, Post("/products", product, true), &created); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

// UpdateProduct replaces a catalog entry (admin only)
func (c *Client) UpdateProduct(ctx context.Context, id int64, product Product) (*Product, error) {
	if err := c.validateRequest(product); err != nil {
		return nil, err
	}

	var updated Product
	if err := c.Send(ctx, Put(fmt.Sprintf("/products/%d", id), product, true), &updated); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return &updated, nil
}

// DeleteProduct removes a catalog entry (admin only)
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.Send(ctx, Delete(fmt.Sprintf("/products/%d", id), true), nil); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// UpdateOrder changes an order's status or total (admin only)
func (c *Client) UpdateOrder(ctx context.Context, id int64, update OrderUpdate) (*Order, error) {
	if err := c.validateRequest(update); err != nil {
		return nil, err
	}

	var order Order
	if err := c.Send(ctx, Put(fmt.Sprintf("/orders/%d", id), update, true), &order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return &order, nil
}

// DeleteOrder removes an order (admin only)
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	if err := c.Send(ctx, Delete(fmt.Sprintf("/orders/%d", id), true), nil); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}
