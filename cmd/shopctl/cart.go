package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/99minutos/storefront/internal/core/domain"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := c.session.Cart.Load(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(view)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id> [quantity]",
			Short: "Add a product",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("product id: %w", err)
				}
				qty := 1
				if len(args) == 2 {
					if qty, err = strconv.Atoi(args[1]); err != nil {
						return fmt.Errorf("quantity: %w", err)
					}
				}
				view, err := c.session.Cart.Add(cmd.Context(), id, qty)
				if err != nil {
					return err
				}
				return c.print(view)
			},
		},
		&cobra.Command{
			Use:   "update <ref> <quantity>",
			Short: "Set a line's quantity (ref as shown by cart, e.g. guest:7)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ref, err := domain.ParseLineRef(args[0])
				if err != nil {
					return err
				}
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity: %w", err)
				}
				view, err := c.session.Cart.UpdateQuantity(cmd.Context(), ref, qty)
				if err != nil {
					return err
				}
				return c.print(view)
			},
		},
		&cobra.Command{
			Use:   "remove <ref>",
			Short: "Remove a line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ref, err := domain.ParseLineRef(args[0])
				if err != nil {
					return err
				}
				view, err := c.session.Cart.Remove(cmd.Context(), ref)
				if err != nil {
					return err
				}
				return c.print(view)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			RunE: func(cmd *cobra.Command, _ []string) error {
				view, err := c.session.Cart.Clear(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(view)
			},
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of items in the cart",
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := c.session.Cart.Count(cmd.Context())
				if err != nil {
					return err
				}
				c.printf("%d\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "merge",
			Short: "Retry merging a guest cart left over from a failed merge",
			RunE: func(cmd *cobra.Command, _ []string) error {
				view, err := c.session.Cart.RetryMerge(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(view)
			},
		},
	)
	return cmd
}
