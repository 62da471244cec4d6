package api

import (
	"net/http"
	"sort"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/helpers"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/models"
	"bitbucket.org/parqueoasis/terminal/payments"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v74"
)

const invoicesLimit = int64(40)

func GetInvoices(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	invoices, err := ctx.Gateway.ListInvoices(r.Context(), invoicesLimit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing invoices")
		return
	}
	if invoices == nil {
		invoices = []*stripe.Invoice{}
	}

	sortInvoices(invoices)
	w.JSON(http.StatusOK, invoices)
}

// sortInvoices orders by status rank, keeping Stripe's order within a rank.
func sortInvoices(invoices []*stripe.Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		return models.InvoiceStatusRank(invoices[i].Status) < models.InvoiceStatusRank(invoices[j].Status)
	})
}

// PayInvoice starts an in-person payment for an invoice: a card_present
// intent for the amount due is created for the invoice's customer and
// attached to the invoice. The intent is then processed on a reader.
func PayInvoice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	invoiceID := mux.Vars(r)["id"]
	if invoiceID == "" {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "invoice id is required")
		return
	}

	invoice, err := ctx.Gateway.GetInvoice(r.Context(), invoiceID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed retrieving invoice", lookupErrorKinds...)
		return
	}
	if invoice.AmountDue <= 0 {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "invoice has no amount due")
		return
	}

	opts := &payments.PaymentIntentOpts{
		Amount:      invoice.AmountDue,
		Currency:    string(invoice.Currency),
		Description: "Invoice " + invoice.ID,
		Metadata:    map[string]string{"invoice_id": invoice.ID},
	}
	if invoice.Customer != nil {
		opts.CustomerID = invoice.Customer.ID
	}

	intent, err := ctx.Gateway.CreatePaymentIntent(r.Context(), opts)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed creating payment intent for invoice", lookupErrorKinds...)
		return
	}

	if _, err := ctx.Gateway.AttachInvoicePayment(r.Context(), invoice.ID, intent.ID); err != nil {
		writeGatewayError(ctx, w, err, "failed attaching payment to invoice", lookupErrorKinds...)
		return
	}

	w.JSON(http.StatusOK, models.PayInvoiceResponse{PaymentIntentID: intent.ID})
}

// GetInvoiceQRCode renders the hosted invoice page as a QR code so the
// customer can pay from a phone instead of the reader.
func GetInvoiceQRCode(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	invoice, err := ctx.Gateway.GetInvoice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeGatewayError(ctx, w, err, "failed retrieving invoice", payments.ErrorKinds.ResourceMissing)
		return
	}
	if invoice.HostedInvoiceURL == "" {
		w.WriteJSON(http.StatusConflict, nil, nil, "invoice has no hosted page yet")
		return
	}

	png, err := helpers.EncodeQRCode(invoice.HostedInvoiceURL)
	if err != nil {
		writeInternalError(ctx, w, err, "failed generating qr code")
		return
	}

	w.Bytes(http.StatusOK, "image/png", png)
}
