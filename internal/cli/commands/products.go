package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/client"
)

type productsOptions struct {
	filter     client.ProductFilter
	minPrice   float64
	maxPrice   float64
	discounted bool
}

// NewProductsCmd creates the products command
func NewProductsCmd(opts *Options) *cobra.Command {
	var po productsOptions

	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "Browse the catalog",
		Long: `Browse the catalog, or show one product by id.

Filtering goes through the search index; --discounted prices the catalog
for the signed-in customer's tier.

Examples:
  $ techshop products
  $ techshop products --category LAPTOP --sort price_desc --max 1500
  $ techshop products 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min") {
				po.filter.MinPrice = &po.minPrice
			}
			if cmd.Flags().Changed("max") {
				po.filter.MaxPrice = &po.maxPrice
			}
			if len(args) == 1 {
				return runProduct(cmd.Context(), opts, args[0])
			}
			return runProducts(cmd.Context(), opts, po)
		},
	}

	cmd.Flags().StringVar(&po.filter.Query, "query", "", "Text to match")
	cmd.Flags().StringVar(&po.filter.Category, "category", "", "Category (LAPTOP, PHONE, GAMING_EQUIPMENT, SMART_DEVICES)")
	cmd.Flags().StringVar(&po.filter.Sort, "sort", "", "Sort as <field>_<asc|desc>, e.g. price_asc")
	cmd.Flags().Float64Var(&po.minPrice, "min", 0, "Minimum price")
	cmd.Flags().Float64Var(&po.maxPrice, "max", 0, "Maximum price")
	cmd.Flags().BoolVar(&po.discounted, "discounted", false, "Show prices for your customer tier (requires login)")

	return cmd
}

func (po productsOptions) filtered() bool {
	f := po.filter
	return f.Query != "" || f.Category != "" || f.Sort != "" || f.MinPrice != nil || f.MaxPrice != nil
}

func runProducts(ctx context.Context, opts *Options, po productsOptions) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if po.discounted {
		userID, err := cn.currentUserID(ctx)
		if err != nil {
			return friendly(err)
		}
		products, err := cn.client.DiscountedProducts(ctx, userID)
		if err != nil {
			return friendly(err)
		}
		return renderDiscounted(opts, products)
	}

	var products []client.Product
	if po.filtered() {
		products, err = cn.client.FilterProducts(ctx, po.filter)
	} else {
		products, err = cn.client.Products(ctx)
	}
	if err != nil {
		return friendly(err)
	}

	return renderProducts(opts, products)
}

func runProduct(ctx context.Context, opts *Options, rawID string) error {
	id, err := parseID(rawID, "product")
	if err != nil {
		return err
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	product, err := cn.client.Product(ctx, id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("product %d not found", id)
		}
		return friendly(err)
	}

	return render(opts.Out, opts.Output, product, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", product.ID)
		fmt.Fprintf(w, "Name:\t%s\n", product.Name)
		fmt.Fprintf(w, "Category:\t%s\n", product.Category)
		fmt.Fprintf(w, "Price:\t%s\n", money(product.Price))
		fmt.Fprintf(w, "Stock:\t%d\n", product.StockQuantity)
		if product.Description != "" {
			fmt.Fprintf(w, "Description:\t%s\n", product.Description)
		}
	})
}

func renderProducts(opts *Options, products []client.Product) error {
	if len(products) == 0 && opts.tableOutput() {
		fmt.Fprintln(opts.Out, "No products found.")
		return nil
	}

	return render(opts.Out, opts.Output, products, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
		fmt.Fprintln(w, "──\t────\t────────\t─────\t─────")
		for _, p := range products {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", p.ID, truncate(p.Name, 40), p.Category, money(p.Price), p.StockQuantity)
		}
	})
}

func renderDiscounted(opts *Options, products []client.ProductDiscount) error {
	return render(opts.Out, opts.Output, products, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tYOUR PRICE")
		fmt.Fprintln(w, "──\t────\t────────\t─────\t──────────")
		for _, p := range products {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, truncate(p.Name, 40), p.Category, money(p.OriginalPrice), money(p.DiscountedPrice))
		}
	})
}

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := opts.connect()
			if err != nil {
				return err
			}

			categories := cn.client.Categories(cmd.Context())
			return render(opts.Out, opts.Output, categories, func(w *tabwriter.Writer) {
				for _, c := range categories {
					fmt.Fprintln(w, c)
				}
			})
		},
	}
}

// Search modes accepted by --mode
const (
	SearchPlain        = "plain"
	SearchFuzzy        = "fuzzy"
	SearchNormalized   = "normalized"
	SearchAutocomplete = "autocomplete"
)

// NewSearchCmd creates the search command
func NewSearchCmd(opts *Options) *cobra.Command {
	var mode, sort string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Long: `Search the catalog.

Modes:
  plain         full-text match (default)
  fuzzy         tolerates typos
  normalized    ignores case and accents
  autocomplete  suggests product names`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, strings.Join(args, " "), mode, sort)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", SearchPlain, "Search mode: plain, fuzzy, normalized, autocomplete")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort plain results as <field>_<asc|desc>")

	return cmd
}

func runSearch(ctx context.Context, opts *Options, query, mode, sort string) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	var products []client.Product
	switch strings.ToLower(mode) {
	case SearchPlain, "":
		if sort != "" {
			field, direction, _ := strings.Cut(sort, "_")
			products, err = cn.client.SearchAndSort(ctx, query, field, direction)
		} else {
			products, err = cn.client.Search(ctx, query)
		}
	case SearchFuzzy:
		products, err = cn.client.FuzzySearch(ctx, query)
	case SearchNormalized:
		products, err = cn.client.NormalizedSearch(ctx, query)
	case SearchAutocomplete:
		suggestions, err := cn.client.Autocomplete(ctx, query)
		if err != nil {
			return friendly(err)
		}
		return render(opts.Out, opts.Output, suggestions, func(w *tabwriter.Writer) {
			for _, s := range suggestions {
				fmt.Fprintln(w, s)
			}
		})
	default:
		return fmt.Errorf("invalid search mode '%s', must be one of: plain, fuzzy, normalized, autocomplete", mode)
	}
	if err != nil {
		return friendly(err)
	}

	return renderProducts(opts, products)
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id '%s'", what, raw)
	}
	return id, nil
}
