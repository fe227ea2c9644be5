package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/client"
)

// NewCartCmd creates the cart command group
func NewCartCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage your shopping cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartShow(cmd.Context(), opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartShow(cmd.Context(), opts)
		},
	})

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartAdd(cmd.Context(), opts, args[0], quantity)
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "Quantity to add")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Change the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartSet(cmd.Context(), opts, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <item-id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartRemove(cmd.Context(), opts, args[0])
		},
	})

	cmd.AddCommand(newCheckoutCmd(opts))

	return cmd
}

// cartFor loads the signed-in user's cart
func (r *conn) cartFor(ctx context.Context) (*client.Cart, error) {
	userID, err := r.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.client.CartForUser(ctx, userID)
}

func runCartShow(ctx context.Context, opts *Options) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	cart, err := cn.cartFor(ctx)
	if err != nil {
		return friendly(err)
	}

	if len(cart.CartItems) == 0 && opts.tableOutput() {
		fmt.Fprintln(opts.Out, "Your cart is empty.")
		fmt.Fprintln(opts.Out, "\nAdd a product with: techshop cart add <product-id>")
		return nil
	}

	return render(opts.Out, opts.Output, cart, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
		fmt.Fprintln(w, "────\t───────\t───\t─────\t────────")
		for _, item := range cart.CartItems {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
				item.ID,
				truncate(item.Product.Name, 40),
				item.Quantity,
				money(item.Product.Price),
				money(item.Product.Price*float64(item.Quantity)),
			)
		}
		fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", money(cart.Total()))
	})
}

func runCartAdd(ctx context.Context, opts *Options, rawProductID string, quantity int) error {
	productID, err := parseID(rawProductID, "product")
	if err != nil {
		return err
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	cart, err := cn.cartFor(ctx)
	if err != nil {
		return friendly(err)
	}

	item, err := cn.client.AddCartItem(ctx, client.CartItemRequest{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return friendly(err)
	}

	name := item.Product.Name
	if name == "" {
		name = fmt.Sprintf("product %d", productID)
	}
	fmt.Fprintf(opts.Out, "✓ Added %d × %s to your cart\n", quantity, name)
	return nil
}

func runCartSet(ctx context.Context, opts *Options, rawItemID, rawQuantity string) error {
	itemID, err := parseID(rawItemID, "cart item")
	if err != nil {
		return err
	}
	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		return fmt.Errorf("invalid quantity '%s'", rawQuantity)
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if quantity == 0 {
		if err := cn.client.DeleteCartItem(ctx, itemID); err != nil {
			return friendly(err)
		}
		fmt.Fprintf(opts.Out, "✓ Removed item %d\n", itemID)
		return nil
	}

	if err := cn.client.UpdateCartItemQuantity(ctx, itemID, quantity); err != nil {
		return friendly(err)
	}
	fmt.Fprintf(opts.Out, "✓ Item %d quantity set to %d\n", itemID, quantity)
	return nil
}

func runCartRemove(ctx context.Context, opts *Options, rawItemID string) error {
	itemID, err := parseID(rawItemID, "cart item")
	if err != nil {
		return err
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if err := cn.client.DeleteCartItem(ctx, itemID); err != nil {
		return friendly(err)
	}
	fmt.Fprintf(opts.Out, "✓ Removed item %d\n", itemID)
	return nil
}

func newCheckoutCmd(opts *Options) *cobra.Command {
	var address client.Address

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd.Context(), opts, address)
		},
	}

	cmd.Flags().StringVar(&address.Street, "street", "", "Shipping street")
	cmd.Flags().StringVar(&address.City, "city", "", "Shipping city")
	cmd.Flags().StringVar(&address.PostalCode, "postal-code", "", "Shipping postal code")
	cmd.Flags().StringVar(&address.Country, "country", "", "Shipping country")

	return cmd
}

func runCheckout(ctx context.Context, opts *Options, address client.Address) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	userID, err := cn.currentUserID(ctx)
	if err != nil {
		return friendly(err)
	}

	order, err := cn.client.Checkout(ctx, userID, address)
	if err != nil {
		if client.IsBadRequest(err) {
			return fmt.Errorf("checkout rejected: %w", err)
		}
		return friendly(err)
	}

	return render(opts.Out, opts.Output, order, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "✓ Order %d placed\n", order.ID)
		fmt.Fprintf(w, "Status:\t%s\n", order.OrderStatus)
		fmt.Fprintf(w, "Total:\t%s\n", money(order.TotalPrice))
	})
}
