package commands

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/techshop-dev/techshop/internal/cli/client"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users, products and orders (admin only)",
	}

	cmd.AddCommand(newAdminUsersCmd(opts))
	cmd.AddCommand(newAdminProductsCmd(opts))
	cmd.AddCommand(newAdminOrdersCmd(opts))

	return cmd
}

// adminConn connects and refuses early when the stored token has no admin role.
// The backend still enforces the role; this only avoids a pointless 403 that would end the session.
func (o *Options) adminConn() (*conn, error) {
	cn, err := o.connect()
	if err != nil {
		return nil, err
	}
	if _, err := cn.client.CurrentClaims(); err != nil {
		return nil, friendly(err)
	}
	if !cn.isAdmin() {
		return nil, fmt.Errorf("admin access required: %s is not signed in as an administrator", cn.server.Alias)
	}
	return cn, nil
}

// confirm asks before a destructive action unless --yes was given
func confirm(opts *Options, yes bool, label string) error {
	if yes {
		return nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("refusing to %s without confirmation (use --yes)", label)
	}

	prompt := promptui.Prompt{
		Label:     strings.ToUpper(label[:1]) + label[1:],
		IsConfirm: true,
		Stdout:    nopCloser{opts.Err},
	}
	if _, err := prompt.Run(); err != nil {
		return fmt.Errorf("cancelled")
	}
	return nil
}

func newAdminUsersCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := opts.adminConn()
			if err != nil {
				return err
			}
			users, err := cn.client.Users(cmd.Context())
			if err != nil {
				return friendly(err)
			}
			return render(opts.Out, opts.Output, users, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tTIER")
				fmt.Fprintln(w, "──\t─────\t────\t────\t────")
				for _, u := range users {
					fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\n", u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.CustomerType)
				}
			})
		},
	})

	var update client.UserUpdate
	updateCmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Edit a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminUpdateUser(cmd, opts, args[0], update)
		},
	}
	updateCmd.Flags().StringVar(&update.FirstName, "first-name", "", "First name")
	updateCmd.Flags().StringVar(&update.LastName, "last-name", "", "Last name")
	updateCmd.Flags().StringVar(&update.Email, "email", "", "Email address")
	updateCmd.Flags().StringVar(&update.Role, "role", "", "Role (USER or ADMIN)")
	updateCmd.Flags().StringVar(&update.CustomerType, "tier", "", "Customer tier (REGULAR, PREMIUM, PLATINUM, VIP)")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(newAdminDeleteCmd(opts, "user", func(ctx context.Context, cn *conn, id int64) error {
		return cn.client.DeleteUser(ctx, id)
	}))

	return cmd
}

// runAdminUpdateUser merges changed flags over the current account so unset fields are kept
func runAdminUpdateUser(cmd *cobra.Command, opts *Options, rawID string, update client.UserUpdate) error {
	id, err := parseID(rawID, "user")
	if err != nil {
		return err
	}

	cn, err := opts.adminConn()
	if err != nil {
		return err
	}

	users, err := cn.client.Users(cmd.Context())
	if err != nil {
		return friendly(err)
	}

	var current *client.User
	for i := range users {
		if users[i].ID == id {
			current = &users[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("user %d not found", id)
	}

	merged := client.UserUpdate{
		FirstName:    current.FirstName,
		LastName:     current.LastName,
		Email:        current.Email,
		Role:         current.Role,
		CustomerType: current.CustomerType,
	}
	flags := cmd.Flags()
	if flags.Changed("first-name") {
		merged.FirstName = update.FirstName
	}
	if flags.Changed("last-name") {
		merged.LastName = update.LastName
	}
	if flags.Changed("email") {
		merged.Email = update.Email
	}
	if flags.Changed("role") {
		merged.Role = strings.ToUpper(update.Role)
	}
	if flags.Changed("tier") {
		merged.CustomerType = strings.ToUpper(update.CustomerType)
	}

	if err := cn.client.UpdateUser(cmd.Context(), id, merged); err != nil {
		return friendly(err)
	}
	fmt.Fprintf(opts.Out, "✓ Updated user %d\n", id)
	return nil
}

func newAdminProductsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the catalog",
	}

	var product client.Product
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&product.Name, "name", "", "Product name")
		c.Flags().StringVar(&product.Description, "description", "", "Description")
		c.Flags().Float64Var(&product.Price, "price", 0, "Price")
		c.Flags().IntVar(&product.StockQuantity, "stock", 0, "Stock quantity")
		c.Flags().StringVar(&product.Category, "category", "", "Category (LAPTOP, PHONE, GAMING_EQUIPMENT, SMART_DEVICES)")
		c.Flags().StringVar(&product.ImageURL, "image-url", "", "Image URL")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := opts.adminConn()
			if err != nil {
				return err
			}
			product.Category = strings.ToUpper(product.Category)
			created, err := cn.client.CreateProduct(cmd.Context(), product)
			if err != nil {
				return friendly(err)
			}
			fmt.Fprintf(opts.Out, "✓ Created product %d (%s)\n", created.ID, created.Name)
			return nil
		},
	}
	bind(create)
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Edit a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminUpdateProduct(cmd, opts, args[0], product)
		},
	}
	bind(update)
	cmd.AddCommand(update)

	cmd.AddCommand(newAdminDeleteCmd(opts, "product", func(ctx context.Context, cn *conn, id int64) error {
		return cn.client.DeleteProduct(ctx, id)
	}))

	return cmd
}

func runAdminUpdateProduct(cmd *cobra.Command, opts *Options, rawID string, changes client.Product) error {
	id, err := parseID(rawID, "product")
	if err != nil {
		return err
	}

	cn, err := opts.adminConn()
	if err != nil {
		return err
	}

	current, err := cn.client.Product(cmd.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("product %d not found", id)
		}
		return friendly(err)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		current.Name = changes.Name
	}
	if flags.Changed("description") {
		current.Description = changes.Description
	}
	if flags.Changed("price") {
		current.Price = changes.Price
	}
	if flags.Changed("stock") {
		current.StockQuantity = changes.StockQuantity
	}
	if flags.Changed("category") {
		current.Category = strings.ToUpper(changes.Category)
	}
	if flags.Changed("image-url") {
		current.ImageURL = changes.ImageURL
	}

	updated, err := cn.client.UpdateProduct(cmd.Context(), id, *current)
	if err != nil {
		return friendly(err)
	}
	fmt.Fprintf(opts.Out, "✓ Updated product %d (%s)\n", updated.ID, updated.Name)
	return nil
}

func newAdminOrdersCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage all orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all orders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := opts.adminConn()
			if err != nil {
				return err
			}
			orders, err := cn.client.Orders(cmd.Context())
			if err != nil {
				return friendly(err)
			}
			return renderOrders(opts, orders)
		},
	})

	var status string
	var total float64
	update := &cobra.Command{
		Use:   "update <order-id>",
		Short: "Change an order's status or total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order")
			if err != nil {
				return err
			}
			cn, err := opts.adminConn()
			if err != nil {
				return err
			}

			current, err := cn.client.Order(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("order %d not found", id)
				}
				return friendly(err)
			}

			upd := client.OrderUpdate{TotalPrice: current.TotalPrice, OrderStatus: current.OrderStatus}
			if cmd.Flags().Changed("status") {
				upd.OrderStatus = strings.ToUpper(status)
			}
			if cmd.Flags().Changed("total") {
				upd.TotalPrice = total
			}

			order, err := cn.client.UpdateOrder(cmd.Context(), id, upd)
			if err != nil {
				return friendly(err)
			}
			fmt.Fprintf(opts.Out, "✓ Order %d is %s (%s)\n", order.ID, order.OrderStatus, money(order.TotalPrice))
			return nil
		},
	}
	update.Flags().StringVar(&status, "status", "", "Status (PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED)")
	update.Flags().Float64Var(&total, "total", 0, "Total price")
	cmd.AddCommand(update)

	cmd.AddCommand(newAdminDeleteCmd(opts, "order", func(ctx context.Context, cn *conn, id int64) error {
		return cn.client.DeleteOrder(ctx, id)
	}))

	return cmd
}

func newAdminDeleteCmd(opts *Options, what string, del func(ctx context.Context, cn *conn, id int64) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     fmt.Sprintf("rm <%s-id>", what),
		Aliases: []string{"delete"},
		Short:   fmt.Sprintf("Delete a %s", what),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], what)
			if err != nil {
				return err
			}
			cn, err := opts.adminConn()
			if err != nil {
				return err
			}
			if err := confirm(opts, yes, fmt.Sprintf("delete %s %d", what, id)); err != nil {
				return err
			}
			if err := del(cmd.Context(), cn, id); err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("%s %d not found", what, id)
				}
				return friendly(err)
			}
			fmt.Fprintf(opts.Out, "✓ Deleted %s %d\n", what, id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
