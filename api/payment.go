package api

import (
	"net/http"
	"strings"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/models"
	"bitbucket.org/parqueoasis/terminal/payments"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v74"
)

// CreatePaymentIntent creates a fresh customer and then a card_present
// payment intent for it. The amount arrives in major units and is rounded
// to minor units.
func CreatePaymentIntent(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.CreatePaymentIntentOpts
	errs := validateJSON(r, models.CreatePaymentIntentRules, &opts)
	if _, malformed := errs["_error"]; malformed {
		writeValidationErrors(w, errs)
		return
	}

	if _, ok := errs["amount"]; !ok && !opts.Amount.Valid() {
		errs.Add("amount", models.InvalidAmountMessage)
	}
	if strings.TrimSpace(opts.Metadata.Name) == "" {
		errs.Add("metadata.name", "The metadata.name field is required")
	}
	if strings.TrimSpace(opts.Metadata.Email) == "" {
		errs.Add("metadata.email", "The metadata.email field is required")
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}

	customer, err := ctx.Gateway.CreateCustomer(r.Context(), opts.Metadata.Name, opts.Metadata.Email)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed creating customer", payments.ErrorKinds.ParameterInvalidInteger)
		return
	}

	intent, err := ctx.Gateway.CreatePaymentIntent(r.Context(), &payments.PaymentIntentOpts{
		Amount:      opts.Amount.MinorUnits(),
		Currency:    currency,
		CustomerID:  customer.ID,
		Description: opts.Description,
		Metadata: map[string]string{
			"name":  opts.Metadata.Name,
			"email": opts.Metadata.Email,
		},
	})
	if err != nil {
		writeGatewayError(ctx, w, err, "failed creating payment intent", payments.ErrorKinds.ParameterInvalidInteger)
		return
	}

	w.JSON(http.StatusOK, models.CreatePaymentIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	})
}

// CancelPaymentIntent clears the reader action before canceling the intent,
// so a reader never keeps pointing at a canceled intent. Succeeded intents
// are refused and already canceled ones are accepted without side effects.
func CancelPaymentIntent(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.CancelPaymentIntentOpts
	if errs := validateJSON(r, models.CancelPaymentIntentRules, &opts); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	intent, err := ctx.Gateway.GetPaymentIntent(r.Context(), opts.PaymentIntentID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed retrieving payment intent", lookupErrorKinds...)
		return
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		w.WriteJSON(http.StatusConflict, &models.PaymentIntentConflict{
			Error:         "Payment intent already succeeded",
			PaymentIntent: intent,
		}, nil, "payment intent already succeeded")
		return
	case stripe.PaymentIntentStatusCanceled:
		w.JSON(http.StatusOK, &models.CancelPaymentIntentResponse{
			Message:         "Payment intent already canceled",
			Status:          string(stripe.PaymentIntentStatusCanceled),
			CancelledIntent: intent,
		})
		return
	}

	reader, err := ctx.Gateway.CancelReaderAction(r.Context(), opts.ReaderID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed canceling reader action", readerErrorKinds...)
		return
	}

	cancelled, err := ctx.Gateway.CancelPaymentIntent(r.Context(), opts.PaymentIntentID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed canceling payment intent", lookupErrorKinds...)
		return
	}

	w.JSON(http.StatusOK, &models.CancelPaymentIntentResponse{
		Message:         "Payment intent canceled",
		Status:          string(cancelled.Status),
		Reader:          reader,
		CancelledIntent: cancelled,
	})
}

// GetPaymentIntentStatus is polled by the point of sale while the reader
// works. Every failure, a missing intent included, is a 500.
func GetPaymentIntentStatus(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.GetPaymentIntentStatusOpts
	if err := queryDecoder.Decode(&opts, r.URL.Query()); err != nil {
		writeInternalError(ctx, w, err, "failed reading payment intent id")
		return
	}
	if opts.ID == "" {
		writeInternalError(ctx, w, errors.New("missing id query parameter"), "failed retrieving payment intent status")
		return
	}

	intent, err := ctx.Gateway.GetPaymentIntent(r.Context(), opts.ID)
	if err != nil {
		writeInternalError(ctx, w, err, "failed retrieving payment intent status")
		return
	}

	w.JSON(http.StatusOK, models.PaymentIntentStatus{Status: intent.Status})
}
