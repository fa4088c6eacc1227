package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// トップページに並べる件数
const homeProductLimit = 8

func (c *cli) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show featured products and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			products, err := c.app.client.ListProducts(ctx, model.ProductFilter{Limit: homeProductLimit})
			if err != nil {
				return err
			}
			categories, err := c.app.client.ListCategories(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Featured products")
			if err := renderProducts(out, products); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Shop by category")
			return renderCategories(out, categories)
		},
	}
}

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse products",
	}

	var filter model.ProductFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.app.client.ListProducts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderProducts(cmd.OutOrStdout(), products)
		},
	}
	list.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of products")
	list.Flags().Int64Var(&filter.CategoryID, "category", 0, "Category ID")
	list.Flags().StringVar(&filter.Search, "search", "", "Search text")
	list.Flags().BoolVar(&filter.Featured, "featured", false, "Only featured products")

	show := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show product details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.app.client.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderProduct(cmd.OutOrStdout(), *p)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := c.app.client.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			return renderCategories(cmd.OutOrStdout(), categories)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseQuantity(args []string, i int) (int, error) {
	if len(args) <= i {
		return 1, nil
	}
	q, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", args[i])
	}
	return q, nil
}
