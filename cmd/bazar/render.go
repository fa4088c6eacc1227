package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/surajkumarsah0/bazar-frontend/internal/cart"
	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

const currency = "Rs."

func money(d decimal.Decimal) string {
	return currency + " " + cart.FormatAmount(d)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// 割引があれば「定価 → 割引価格」
func priceLabel(p model.Product) string {
	if p.HasDiscount() {
		return fmt.Sprintf("%s -> %s", money(p.Price), money(p.EffectivePrice()))
	}
	return money(p.Price)
}

func stockLabel(p model.Product) string {
	if !p.InStock() {
		return "Out of stock"
	}
	return fmt.Sprintf("In stock (%d)", p.Stock)
}

func renderProducts(w io.Writer, products []model.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products found.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		name := p.Name
		if p.Featured {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, name, priceLabel(p), stockLabel(p), category)
	}
	return tw.Flush()
}

func renderProduct(w io.Writer, p model.Product) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%d\n", p.ID)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	if p.Brand != "" {
		fmt.Fprintf(tw, "Brand\t%s\n", p.Brand)
	}
	if p.Category != nil {
		fmt.Fprintf(tw, "Category\t%s\n", p.Category.Name)
	}
	fmt.Fprintf(tw, "Price\t%s\n", priceLabel(p))
	if p.HasDiscount() {
		saved := p.Price.Sub(p.EffectivePrice())
		fmt.Fprintf(tw, "You save\t%s\n", money(saved))
	}
	fmt.Fprintf(tw, "Stock\t%s\n", stockLabel(p))
	if p.Description != "" {
		fmt.Fprintf(tw, "Description\t%s\n", p.Description)
	}
	return tw.Flush()
}

func renderCategories(w io.Writer, categories []model.Category) error {
	if len(categories) == 0 {
		_, err := fmt.Fprintln(w, "No categories.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return tw.Flush()
}

// renderCartは明細・小計・送料・合計を出す（送料は無料）
func renderCart(w io.Writer, snap cart.Snapshot) error {
	if len(snap.Lines) == 0 {
		_, err := fmt.Fprintln(w, "Your cart is empty.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tUNIT\tQTY\tTOTAL")
	for _, l := range snap.Lines {
		unit := money(l.UnitPrice)
		if l.Discounted() {
			unit += " (was " + money(l.ListPrice) + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", l.ProductID, l.Name, unit, l.Quantity, money(l.Total()))
	}
	fmt.Fprintln(tw, "\t\t\t\t")
	fmt.Fprintf(tw, "Subtotal (%d items)\t\t\t\t%s\n", snap.TotalItems, money(snap.TotalPrice))
	fmt.Fprintln(tw, "Shipping\t\t\t\tFree")
	fmt.Fprintf(tw, "Total\t\t\t\t%s\n", money(snap.TotalPrice))
	return tw.Flush()
}

func renderOrders(w io.Writer, orders []model.Order, withCustomer bool) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "No orders yet.")
		return err
	}

	tw := newTable(w)
	header := "ORDER\tDATE\tSTATUS\tITEMS\tTOTAL\tPAYMENT"
	if withCustomer {
		header += "\tCUSTOMER"
	}
	fmt.Fprintln(tw, header)
	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			name := fmt.Sprintf("#%d", it.ProductID)
			if it.Product != nil {
				name = it.Product.Name
			}
			items = append(items, fmt.Sprintf("%s x%d", name, it.Quantity))
		}
		row := fmt.Sprintf("#%d\t%s\t%s\t%s\t%s\t%s",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.Status.Label(),
			strings.Join(items, ", "), money(o.TotalAmount), o.PaymentMethod)
		if withCustomer {
			customer := fmt.Sprintf("user %d", o.UserID)
			if o.User != nil {
				customer = o.User.Name + " <" + o.User.Email + ">"
			}
			row += "\t" + customer
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}
