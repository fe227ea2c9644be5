package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/client"
)

// NewOrdersCmd creates the orders command group
func NewOrdersCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and inspect your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersList(cmd.Context(), opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your orders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersList(cmd.Context(), opts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderShow(cmd.Context(), opts, args[0])
		},
	})

	return cmd
}

func runOrdersList(ctx context.Context, opts *Options) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	userID, err := cn.currentUserID(ctx)
	if err != nil {
		return friendly(err)
	}

	orders, err := cn.client.UserOrders(ctx, userID)
	if err != nil {
		return friendly(err)
	}

	return renderOrders(opts, orders)
}

func renderOrders(opts *Options, orders []client.Order) error {
	if len(orders) == 0 && opts.tableOutput() {
		fmt.Fprintln(opts.Out, "No orders found.")
		return nil
	}

	return render(opts.Out, opts.Output, orders, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tUSER\tSTATUS\tITEMS\tTOTAL\tPLACED")
		fmt.Fprintln(w, "──\t────\t──────\t─────\t─────\t──────")
		for _, o := range orders {
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n",
				o.ID,
				o.UserID,
				o.OrderStatus,
				len(o.OrderItems),
				money(o.TotalPrice),
				formatTime(o.CreatedAt),
			)
		}
	})
}

func runOrderShow(ctx context.Context, opts *Options, rawID string) error {
	id, err := parseID(rawID, "order")
	if err != nil {
		return err
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	order, err := cn.client.Order(ctx, id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("order %d not found", id)
		}
		return friendly(err)
	}

	return render(opts.Out, opts.Output, order, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Order:\t%d\n", order.ID)
		fmt.Fprintf(w, "Status:\t%s\n", order.OrderStatus)
		fmt.Fprintf(w, "Placed:\t%s\n", formatTime(order.CreatedAt))
		if a := order.Address; a != nil {
			fmt.Fprintf(w, "Ship to:\t%s, %s %s, %s\n", a.Street, a.PostalCode, a.City, a.Country)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PRODUCT\tQTY\tPRICE")
		for _, item := range order.OrderItems {
			fmt.Fprintf(w, "%s\t%d\t%s\n", truncate(item.Product.Name, 40), item.Quantity, money(item.Price))
		}
		fmt.Fprintf(w, "TOTAL\t\t%s\n", money(order.TotalPrice))
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
