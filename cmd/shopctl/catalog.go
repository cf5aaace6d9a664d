package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/99minutos/storefront/internal/core/domain"
)

func (c *cli) productsCmd() *cobra.Command {
	var q domain.ProductQuery
	var featured bool
	cmd := &cobra.Command{
		Use:   "products [id|slug]",
		Short: "Browse the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog := c.session.Catalog
			if len(args) == 1 {
				var (
					p   *domain.Product
					err error
				)
				if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
					p, err = catalog.Product(ctx, id)
				} else {
					p, err = catalog.ProductBySlug(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return c.print(p)
			}
			if featured {
				products, err := catalog.Featured(ctx)
				if err != nil {
					return err
				}
				return c.print(products)
			}
			page, err := catalog.Products(ctx, q)
			if err != nil {
				return err
			}
			return c.print(page)
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.Page, "page", 0, "page number")
	f.StringVar(&q.Category, "category", "", "category slug")
	f.Int64Var(&q.Vendor, "vendor", 0, "vendor id")
	f.StringVar(&q.Search, "search", "", "search term")
	f.StringVar(&q.Ordering, "ordering", "", "ordering, e.g. -price")
	f.BoolVar(&featured, "featured", false, "list featured products only")
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.session.Catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, cat := range cats {
				c.printf("%-20s %s\n", cat.Slug, cat.Name)
			}
			if len(cats) == 0 {
				fmt.Fprintln(c.out, "no categories")
			}
			return nil
		},
	}
}
