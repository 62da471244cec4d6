package models

import "github.com/stripe/stripe-go/v74"

// InvoiceStatusRanks orders invoices for display. Unknown statuses rank last.
var InvoiceStatusRanks = map[stripe.InvoiceStatus]int{
	stripe.InvoiceStatusOpen:          0,
	stripe.InvoiceStatusDraft:         1,
	stripe.InvoiceStatusUncollectible: 2,
	stripe.InvoiceStatusPaid:          3,
	stripe.InvoiceStatusVoid:          4,
}

func InvoiceStatusRank(status stripe.InvoiceStatus) int {
	if rank, ok := InvoiceStatusRanks[status]; ok {
		return rank
	}
	return len(InvoiceStatusRanks)
}

type PayInvoiceResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
}
