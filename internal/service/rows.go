package service

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
)

// UnknownProductLabel is shown for products without a display label.
const UnknownProductLabel = "Unknown product"

// ItemRow is one selectable row of the payment items screen.
type ItemRow struct {
	Name            string
	Logo            string
	ProductID       int
	AccountOnFileID int
}

// ItemRows are the two sections of the payment items screen.
type ItemRows struct {
	AccountsOnFile []ItemRow
	Products       []ItemRow
}

// HasAccountsOnFile reports whether the stored accounts section is shown.
func (r ItemRows) HasAccountsOnFile() bool {
	return len(r.AccountsOnFile) > 0
}

// BuildItemRows lists accounts on file and products ordered by the display
// order of their product. Accounts whose product is not listed are skipped.
func BuildItemRows(items *onlinepayments.PaymentItems, assetURL string) ItemRows {
	var rows ItemRows
	if items == nil {
		return rows
	}

	products := append([]onlinepayments.BasicPaymentProduct(nil), items.Products...)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Hints().DisplayOrder < products[j].Hints().DisplayOrder
	})
	for _, p := range products {
		hints := p.Hints()
		name := hints.Label
		if name == "" {
			name = UnknownProductLabel
		}
		rows.Products = append(rows.Products, ItemRow{
			Name:      name,
			Logo:      assetPath(assetURL, hints.Logo),
			ProductID: p.ID,
		})
	}

	accounts := append([]onlinepayments.AccountOnFile(nil), items.AccountsOnFile...)
	order := func(a onlinepayments.AccountOnFile) int {
		if p := items.Product(a.PaymentProductID); p != nil {
			return p.Hints().DisplayOrder
		}
		return math.MaxInt
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return order(accounts[i]) < order(accounts[j])
	})
	for i := range accounts {
		a := &accounts[i]
		product := items.Product(a.PaymentProductID)
		if product == nil {
			continue
		}
		logo := a.DisplayHints.Logo
		if logo == "" {
			logo = product.Hints().Logo
		}
		rows.AccountsOnFile = append(rows.AccountsOnFile, ItemRow{
			Name:            a.Label(),
			Logo:            assetPath(assetURL, logo),
			ProductID:       a.PaymentProductID,
			AccountOnFileID: a.ID,
		})
	}
	return rows
}

// assetPath resolves a logo path against the asset base URL. Absolute logo
// URLs are returned unchanged.
func assetPath(base, logo string) string {
	if logo == "" {
		return ""
	}
	if u, err := url.Parse(logo); err == nil && u.IsAbs() {
		return logo
	}
	if base == "" {
		return logo
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(logo, "/")
}
