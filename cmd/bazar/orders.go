package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surajkumarsah0/bazar-frontend/internal/checkout"
	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

func (c *cli) checkoutCmd() *cobra.Command {
	var (
		d       checkout.Details
		payment string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d.PaymentMethod = model.PaymentMethod(payment)

			order, err := c.app.checkout.PlaceOrder(cmd.Context(), d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Order #%d placed: %s, %s (%s).\n",
				order.ID, money(order.TotalAmount), order.Status.Label(), order.PaymentMethod)
			return err
		},
	}

	cmd.Flags().StringVar(&d.ShippingAddress, "address", "", "Shipping address")
	cmd.Flags().StringVar(&d.Phone, "phone", "", "Contact phone number")
	cmd.Flags().StringVar(&payment, "payment", string(model.PaymentCashOnDelivery),
		fmt.Sprintf("Payment method (%q or %q)", model.PaymentCashOnDelivery, model.PaymentOnline))
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show your order history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireLogin(); err != nil {
				return err
			}
			orders, err := c.app.client.MyOrders(cmd.Context())
			if err != nil {
				return err
			}
			return renderOrders(cmd.OutOrStdout(), orders, false)
		},
	}
}
