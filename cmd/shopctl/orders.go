package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/99minutos/storefront/internal/core/domain"
)

func (c *cli) checkoutCmd() *cobra.Command {
	var (
		addr      domain.ShippingAddress
		addressID int64
		save      bool
		email     string
		notes     string
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var (
				order *domain.Order
				err   error
			)
			if c.session.Identity.State().IsAuthenticated() {
				in := domain.CheckoutInput{AddressID: addressID, SaveAddress: save, Notes: notes}
				if addressID == 0 {
					in.Shipping = &addr
				}
				order, err = c.session.Orders.Checkout(ctx, in)
			} else {
				if email == "" {
					return errors.New("--email is required when not signed in")
				}
				order, err = c.session.Orders.GuestCheckout(ctx, domain.GuestCheckoutInput{Email: email, Shipping: addr, Notes: notes})
			}
			if err != nil {
				return err
			}
			return c.print(order)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr.FullName, "name", "", "recipient name")
	f.StringVar(&addr.Phone, "phone", "", "recipient phone")
	f.StringVar(&addr.AddressLine1, "address", "", "street address")
	f.StringVar(&addr.AddressLine2, "address2", "", "apartment, suite, etc.")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.State, "state", "", "state or province")
	f.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&addr.Country, "country", "", "country")
	f.Int64Var(&addressID, "address-id", 0, "ship to a saved address instead")
	f.BoolVar(&save, "save-address", false, "save the shipping address to the account")
	f.StringVar(&email, "email", "", "contact email (guest checkout)")
	f.StringVar(&notes, "notes", "", "notes for the seller")
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := c.session.Orders.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(orders)
		},
	}

	var email string
	track := &cobra.Command{
		Use:   "track <number>",
		Short: "Look up a guest order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := c.session.Orders.GuestOrder(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			return c.print(order)
		},
	}
	track.Flags().StringVar(&email, "email", "", "email used at checkout")
	_ = track.MarkFlagRequired("email")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <number>",
			Short: "Show one order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				order, err := c.session.Orders.Order(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(order)
			},
		},
		&cobra.Command{
			Use:   "cancel <number>",
			Short: "Cancel a pending order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				order, err := c.session.Orders.Cancel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(order)
			},
		},
		track,
	)
	return cmd
}

func (c *cli) vendorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendor",
		Short: "Fulfil orders as a vendor",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "orders",
			Short: "List orders containing your products",
			RunE: func(cmd *cobra.Command, _ []string) error {
				orders, err := c.session.Orders.VendorOrders(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(orders)
			},
		},
		&cobra.Command{
			Use:   "order <number>",
			Short: "Show your items of one order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				order, err := c.session.Orders.VendorOrder(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(order)
			},
		},
		&cobra.Command{
			Use:   "status <number> <item-id> <status>",
			Short: "Move an order item to processing, shipped, delivered or cancelled",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				itemID, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("item id: %w", err)
				}
				item, err := c.session.Orders.UpdateItemStatus(cmd.Context(), args[0], itemID, domain.OrderStatus(args[2]))
				if err != nil {
					return err
				}
				return c.print(item)
			},
		},
	)
	return cmd
}
