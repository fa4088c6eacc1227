package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/surajkumarsah0/bazar-frontend/internal/cart"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCart(cmd.OutOrStdout(), c.app.cart.Snapshot())
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.addToCart(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			q, err := parseQuantity(args, 1)
			if err != nil {
				return err
			}
			c.app.cart.UpdateQuantity(id, q)
			return renderCart(cmd.OutOrStdout(), c.app.cart.Snapshot())
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c.app.cart.RemoveItem(id)
			return renderCart(cmd.OutOrStdout(), c.app.cart.Snapshot())
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.cart.Clear()
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
			return err
		},
	}

	cmd.AddCommand(add, update, remove, clearCmd)
	return cmd
}

// buy は商品詳細の「今すぐ購入」。カートに入れてそのままカートを表示する。
func (c *cli) buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <product-id> [quantity]",
		Short: "Add a product and show the cart for checkout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := c.addToCart(cmd.Context(), out, args); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := renderCart(out, c.app.cart.Snapshot()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(out, "\nRun `bazar checkout` to place the order.")
			return err
		},
	}
}

// addToCartは最新の商品情報を取り、数量を在庫数に収めてから追加する
func (c *cli) addToCart(ctx context.Context, out io.Writer, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	q, err := parseQuantity(args, 1)
	if err != nil {
		return err
	}

	p, err := c.app.client.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if !p.InStock() {
		return fmt.Errorf("%s is out of stock", p.Name)
	}

	q = cart.ClampToStock(q, p.Stock)
	c.app.cart.AddItem(*p, q)

	_, err = fmt.Fprintf(out, "Added %d x %s to cart (%d items, %s).\n",
		q, p.Name, c.app.cart.TotalItemCount(), money(c.app.cart.TotalPrice()))
	return err
}
