package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// adminCmd 以下はすべて管理者のみ（サーバー側でも確認される）
func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage products, categories and orders",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			return c.app.requireAdmin()
		},
	}
	cmd.AddCommand(c.adminProductsCmd(), c.adminCategoriesCmd(), c.adminOrdersCmd())
	return cmd
}

// =====================
// products
// =====================

type productFlags struct {
	name        string
	description string
	price       string
	discount    string
	stock       int
	categoryID  int64
	image       string
	brand       string
	featured    bool
}

func (f *productFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Product name")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.StringVar(&f.price, "price", "", "List price")
	fs.StringVar(&f.discount, "discount", "", "Discount price (empty for none)")
	fs.IntVar(&f.stock, "stock", 0, "Units in stock")
	fs.Int64Var(&f.categoryID, "category", 0, "Category ID")
	fs.StringVar(&f.image, "image", "", "Image URL")
	fs.StringVar(&f.brand, "brand", "", "Brand")
	fs.BoolVar(&f.featured, "featured", false, "Show on the home page")
}

// applyは指定されたフラグだけを in に反映する
func (f *productFlags) apply(fs *pflag.FlagSet, in *model.ProductInput) error {
	if fs.Changed("name") {
		in.Name = f.name
	}
	if fs.Changed("description") {
		in.Description = f.description
	}
	if fs.Changed("price") {
		d, err := decimal.NewFromString(f.price)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", f.price, err)
		}
		in.Price = d
	}
	if fs.Changed("discount") {
		if f.discount == "" {
			in.DiscountPrice = decimal.NullDecimal{}
		} else {
			d, err := decimal.NewFromString(f.discount)
			if err != nil {
				return fmt.Errorf("invalid discount %q: %w", f.discount, err)
			}
			in.DiscountPrice = decimal.NewNullDecimal(d)
		}
	}
	if fs.Changed("stock") {
		in.Stock = f.stock
	}
	if fs.Changed("category") {
		in.CategoryID = f.categoryID
	}
	if fs.Changed("image") {
		in.Image = f.image
	}
	if fs.Changed("brand") {
		in.Brand = f.brand
	}
	if fs.Changed("featured") {
		in.Featured = f.featured
	}
	return nil
}

func inputFromProduct(p model.Product) model.ProductInput {
	return model.ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
		Image:         p.Image,
		Images:        p.Images,
		Brand:         p.Brand,
		Featured:      p.Featured,
	}
}

func (c *cli) adminProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.app.client.ListProducts(cmd.Context(), model.ProductFilter{Limit: 100})
			if err != nil {
				return err
			}
			return renderProducts(cmd.OutOrStdout(), products)
		},
	}

	var createFlags productFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.ProductInput
			if err := createFlags.apply(cmd.Flags(), &in); err != nil {
				return err
			}
			p, err := c.app.client.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Product #%d created.\n", p.ID)
			return err
		},
	}
	createFlags.register(create.Flags())
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("price")

	var updateFlags productFlags
	update := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update a product (only the given fields change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := c.app.client.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := inputFromProduct(*current)
			if err := updateFlags.apply(cmd.Flags(), &in); err != nil {
				return err
			}
			if _, err := c.app.client.UpdateProduct(cmd.Context(), id, in); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Product #%d updated.\n", id)
			return err
		},
	}
	updateFlags.register(update.Flags())

	del := &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.client.DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Product #%d deleted.\n", id)
			return err
		},
	}

	cmd.AddCommand(create, update, del)
	return cmd
}

// =====================
// categories
// =====================

func (c *cli) adminCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := c.app.client.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			return renderCategories(cmd.OutOrStdout(), categories)
		},
	}

	var in model.CategoryInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.app.client.CreateCategory(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Category #%d created.\n", cat.ID)
			return err
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Category name")
	create.Flags().StringVar(&in.Description, "description", "", "Description")
	_ = create.MarkFlagRequired("name")

	var name, description string
	update := &cobra.Command{
		Use:   "update <category-id>",
		Short: "Rename or describe a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := c.findCategory(cmd, id)
			if err != nil {
				return err
			}

			// 指定されたフラグだけを上書きする
			upd := model.CategoryInput{Name: current.Name, Description: current.Description}
			fs := cmd.Flags()
			if fs.Changed("name") {
				upd.Name = name
			}
			if fs.Changed("description") {
				upd.Description = description
			}

			if _, err := c.app.client.UpdateCategory(cmd.Context(), id, upd); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Category #%d updated.\n", id)
			return err
		},
	}
	update.Flags().StringVar(&name, "name", "", "Category name")
	update.Flags().StringVar(&description, "description", "", "Description")

	del := &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.client.DeleteCategory(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Category #%d deleted.\n", id)
			return err
		},
	}

	cmd.AddCommand(create, update, del)
	return cmd
}

// 単体取得のAPIが無いので一覧から探す
func (c *cli) findCategory(cmd *cobra.Command, id int64) (model.Category, error) {
	categories, err := c.app.client.ListCategories(cmd.Context())
	if err != nil {
		return model.Category{}, err
	}
	for _, cat := range categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return model.Category{}, fmt.Errorf("category #%d not found", id)
}

// =====================
// orders
// =====================

func (c *cli) adminOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List all orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := c.app.client.AllOrders(cmd.Context())
			if err != nil {
				return err
			}
			return renderOrders(cmd.OutOrStdout(), orders, true)
		},
	}

	status := &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Change an order's status",
		Long:  "Status is one of pending, processing, shipped, delivered, cancelled.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := model.OrderStatus(args[1])
			if !s.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			o, err := c.app.client.UpdateOrderStatus(cmd.Context(), id, s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Order #%d is now %s.\n", o.ID, o.Status.Label())
			return err
		},
	}

	cmd.AddCommand(status)
	return cmd
}
