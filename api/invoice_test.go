package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"bitbucket.org/parqueoasis/terminal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
)

func invoicesWithStatuses(statuses ...stripe.InvoiceStatus) []*stripe.Invoice {
	invoices := make([]*stripe.Invoice, 0, len(statuses))
	for i, status := range statuses {
		invoices = append(invoices, &stripe.Invoice{ID: string(rune('a' + i)), Status: status})
	}
	return invoices
}

func statusesOf(invoices []*stripe.Invoice) []stripe.InvoiceStatus {
	var out []stripe.InvoiceStatus
	for _, invoice := range invoices {
		out = append(out, invoice.Status)
	}
	return out
}

func TestSortInvoices(t *testing.T) {
	invoices := invoicesWithStatuses(
		stripe.InvoiceStatusPaid,
		stripe.InvoiceStatusOpen,
		stripe.InvoiceStatusVoid,
		stripe.InvoiceStatusDraft,
	)
	sortInvoices(invoices)
	assert.Equal(t, []stripe.InvoiceStatus{"open", "draft", "paid", "void"}, statusesOf(invoices))

	invoices = invoicesWithStatuses("mystery", "void", "uncollectible", "open", "open")
	sortInvoices(invoices)
	assert.Equal(t, []stripe.InvoiceStatus{"open", "open", "uncollectible", "void", "mystery"}, statusesOf(invoices))
	// stable within a rank
	assert.Equal(t, "d", invoices[0].ID)
	assert.Equal(t, "e", invoices[1].ID)
}

func TestGetInvoices(t *testing.T) {
	gateway := &fakeGateway{
		ListInvoicesFunc: func(_ context.Context, limit int64) ([]*stripe.Invoice, error) {
			assert.Equal(t, int64(40), limit)
			return invoicesWithStatuses("paid", "open"), nil
		},
	}

	w := doRequest(t, newTestHandler(gateway, testConfig()), http.MethodGet, "/invoices", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "open", got[0]["status"])

	gateway.ListInvoicesFunc = func(context.Context, int64) ([]*stripe.Invoice, error) {
		return nil, stripeErr("resource_missing", stripe.ErrorTypeInvalidRequest, 404)
	}
	w = doRequest(t, newTestHandler(gateway, testConfig()), http.MethodGet, "/invoices", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPayInvoice(t *testing.T) {
	openInvoice := func(_ context.Context, id string) (*stripe.Invoice, error) {
		if id != "in_1" {
			return nil, stripeErr("resource_missing", stripe.ErrorTypeInvalidRequest, 404)
		}
		return &stripe.Invoice{
			ID:        id,
			AmountDue: 4200,
			Currency:  stripe.CurrencyEUR,
			Customer:  &stripe.Customer{ID: "cus_9"},
			Status:    stripe.InvoiceStatusOpen,
		}, nil
	}

	t.Run("creates and attaches a payment intent", func(t *testing.T) {
		var intentOpts payments.PaymentIntentOpts
		var attached [2]string
		gateway := &fakeGateway{
			GetInvoiceFunc: openInvoice,
			CreatePaymentIntentFunc: func(_ context.Context, opts *payments.PaymentIntentOpts) (*stripe.PaymentIntent, error) {
				intentOpts = *opts
				return &stripe.PaymentIntent{ID: "pi_7"}, nil
			},
			AttachInvoicePaymentFunc: func(_ context.Context, invoiceID, paymentIntentID string) (*stripe.Invoice, error) {
				attached = [2]string{invoiceID, paymentIntentID}
				return &stripe.Invoice{ID: invoiceID}, nil
			},
		}

		w := doRequest(t, newTestHandler(gateway, testConfig()), http.MethodPost, "/invoices/in_1/pay", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, map[string]interface{}{"paymentIntentId": "pi_7"}, decodeBody(t, w))
		assert.Equal(t, []string{"GetInvoice", "CreatePaymentIntent", "AttachInvoicePayment"}, gateway.Calls())
		assert.Equal(t, int64(4200), intentOpts.Amount)
		assert.Equal(t, "eur", intentOpts.Currency)
		assert.Equal(t, "cus_9", intentOpts.CustomerID)
		assert.Equal(t, [2]string{"in_1", "pi_7"}, attached)
	})

	t.Run("unknown invoice is 404", func(t *testing.T) {
		gateway := &fakeGateway{GetInvoiceFunc: openInvoice}
		w := doRequest(t, newTestHandler(gateway, testConfig()), http.MethodPost, "/invoices/in_404/pay", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, []string{"GetInvoice"}, gateway.Calls())
	})

	t.Run("invalid request on attach is 400", func(t *testing.T) {
		gateway := &fakeGateway{
			GetInvoiceFunc: openInvoice,
			CreatePaymentIntentFunc: func(context.Context, *payments.PaymentIntentOpts) (*stripe.PaymentIntent, error) {
				return &stripe.PaymentIntent{ID: "pi_7"}, nil
			},
			AttachInvoicePaymentFunc: func(context.Context, string, string) (*stripe.Invoice, error) {
				return nil, stripeErr("", stripe.ErrorTypeInvalidRequest, 400)
			},
		}
		w := doRequest(t, newTestHandler(gateway, testConfig()), http.MethodPost, "/invoices/in_1/pay", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetInvoiceQRCode(t *testing.T) {
	gateway := &fakeGateway{
		GetInvoiceFunc: func(_ context.Context, id string) (*stripe.Invoice, error) {
			if id == "in_draft" {
				return &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusDraft}, nil
			}
			return &stripe.Invoice{ID: id, HostedInvoiceURL: "https://invoice.stripe.com/i/acct_1/test_1"}, nil
		},
	}
	h := newTestHandler(gateway, testConfig())

	w := doRequest(t, h, http.MethodGet, "/invoices/in_1/qr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	w = doRequest(t, h, http.MethodGet, "/invoices/in_draft/qr", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	gateway.GetInvoiceFunc = func(context.Context, string) (*stripe.Invoice, error) {
		return nil, stripeErr("", stripe.ErrorTypeInvalidRequest, 400)
	}
	w = doRequest(t, h, http.MethodGet, "/invoices/in_1/qr", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
