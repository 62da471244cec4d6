package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"github.com/stripe/stripe-go/v74"
)

const customersLimit = int64(20)

func GetCustomers(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	customers, err := ctx.Gateway.ListCustomers(r.Context(), customersLimit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing customers")
		return
	}
	if customers == nil {
		customers = []*stripe.Customer{}
	}

	w.JSON(http.StatusOK, customers)
}
