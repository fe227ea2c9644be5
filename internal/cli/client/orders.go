package client

import (
	"context"
	"fmt"
)

// CartForUser fetches the cart belonging to a user
func (c *Client) CartForUser(ctx context.Context, userID int64) (*Cart, error) {
	var cart Cart
	if err := c.Send(ctx, Get(fmt.Sprintf("/carts/user/%d", userID), true), &cart); err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	return &cart, nil
}

// AddCartItem puts a product into a cart
func (c *Client) AddCartItem(ctx context.Context, item CartItemRequest) (*CartItem, error) {
	if err := c.validateRequest(item); err != nil {
		return nil, err
	}

	var created CartItem
	if err := c.Send(ctx, Post("/cart-items", item, true), &created); err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}
	return &created, nil
}

// UpdateCartItemQuantity changes the quantity of a cart line
func (c *Client) UpdateCartItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid request: quantity must be positive, got %d", quantity)
	}

	body := map[string]int{"quantity": quantity}
	if err := c.Send(ctx, Put(fmt.Sprintf("/cart-items/%d", itemID), body, true), nil); err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// DeleteCartItem removes a cart line
func (c *Client) DeleteCartItem(ctx context.Context, itemID int64) error {
	if err := c.Send(ctx, Delete(fmt.Sprintf("/cart-items/%d", itemID), true), nil); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// Checkout turns the user's cart into a pending order shipped to address
func (c *Client) Checkout(ctx context.Context, userID int64, address Address) (*Order, error) {
	body := CheckoutRequest{UserID: userID, Address: address}
	if err := c.validateRequest(body); err != nil {
		return nil, err
	}

	var order Order
	if err := c.Send(ctx, Post("/orders/checkout", body, true), &order); err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}
	return &order, nil
}

// Orders lists orders visible to the authenticated user (all orders for admins)
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.Send(ctx, Get("/orders", true), &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Order fetches one order
func (c *Client) Order(ctx context.Context, id int64) (*Order, error) {
	var order Order
	if err := c.Send(ctx, Get(fmt.Sprintf("/orders/%d", id), true), &order); err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return &order, nil
}

// UserOrders lists the orders placed by a user
func (c *Client) UserOrders(ctx context.Context, userID int64) ([]Order, error) {
	var orders []Order
	if err := c.Send(ctx, Get(fmt.Sprintf("/users/%d/orders", userID), true), &orders); err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return orders, nil
}
