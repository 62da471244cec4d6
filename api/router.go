package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler},

		// Terminal
		{Path: "/connection-token", Methods: []string{"POST"}, Handler: CreateConnectionToken, RequiresGateway: true},
		{Path: "/register-reader", Methods: []string{"POST"}, Handler: RegisterReader, RequiresGateway: true},
		{Path: "/readers", Methods: []string{"GET"}, Handler: GetReaders, RequiresGateway: true},
		{Path: "/create-location", Methods: []string{"POST"}, Handler: CreateLocation, RequiresGateway: true},
		{Path: "/locations", Methods: []string{"GET"}, Handler: GetLocations, RequiresGateway: true},
		{Path: "/process-payment", Methods: []string{"POST"}, Handler: ProcessPayment, RequiresGateway: true},
		{Path: "/simulate-payment", Methods: []string{"POST"}, Handler: SimulatePayment, RequiresGateway: true},

		// Catalog
		{Path: "/products", Methods: []string{"GET"}, Handler: GetProducts, RequiresGateway: true},
		{Path: "/customers", Methods: []string{"GET"}, Handler: GetCustomers, RequiresGateway: true},

		// Payment intents
		{Path: "/create-payment-intent", Methods: []string{"POST"}, Handler: CreatePaymentIntent, RequiresGateway: true},
		{Path: "/cancel-payment-intent", Methods: []string{"POST"}, Handler: CancelPaymentIntent, RequiresGateway: true},
		{Path: "/payment-intent-status", Methods: []string{"GET"}, Handler: GetPaymentIntentStatus, RequiresGateway: true},

		// Invoices
		{Path: "/invoices", Methods: []string{"GET"}, Handler: GetInvoices, RequiresGateway: true},
		{Path: "/invoices/{id}/pay", Methods: []string{"POST"}, Handler: PayInvoice, RequiresGateway: true},
		{Path: "/invoices/{id}/qr", Methods: []string{"GET"}, Handler: GetInvoiceQRCode, RequiresGateway: true},

		// Webhook
		{Path: "/webhook", Methods: []string{"POST"}, Handler: HandleWebhook, RequiresGateway: true, RawBody: true},
	}
}
