package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/models"
	"github.com/stripe/stripe-go/v74"
)

func GetProducts(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	limit := ctx.Config.ProductsLimit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	products, err := ctx.Gateway.ListProducts(r.Context(), limit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing products")
		return
	}

	prices, err := ctx.Gateway.ListPrices(r.Context(), limit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing prices")
		return
	}

	w.JSON(http.StatusOK, mergeProducts(products, prices))
}

// mergeProducts joins each product with its first active price that has a
// unit amount. Products without one are listed at 0 usd.
func mergeProducts(products []*stripe.Product, prices []*stripe.Price) []models.Product {
	merged := make([]models.Product, 0, len(products))
	for _, p := range products {
		item := models.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Currency:    models.DefaultCurrency,
		}
		if len(p.Images) > 0 {
			item.Image = p.Images[0]
		}
		if price := findPrice(p.ID, prices); price != nil {
			item.Price = float64(price.UnitAmount) / 100
			item.Currency = string(price.Currency)
			item.PriceID = price.ID
		}
		merged = append(merged, item)
	}
	return merged
}

func findPrice(productID string, prices []*stripe.Price) *stripe.Price {
	for _, price := range prices {
		if price == nil || price.Product == nil || price.Product.ID != productID {
			continue
		}
		if !price.Active || price.UnitAmount == 0 {
			continue
		}
		return price
	}
	return nil
}
