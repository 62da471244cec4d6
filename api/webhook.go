package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
)

const signatureHeader = "Stripe-Signature"

type readerAction struct {
	Type           string `mapstructure:"type"`
	Status         string `mapstructure:"status"`
	FailureCode    string `mapstructure:"failure_code"`
	FailureMessage string `mapstructure:"failure_message"`
}

// eventObject is the part of data.object worth logging for every event we
// subscribe to.
type eventObject struct {
	ID       string        `mapstructure:"id"`
	Object   string        `mapstructure:"object"`
	Status   string        `mapstructure:"status"`
	Amount   int64         `mapstructure:"amount"`
	Currency string        `mapstructure:"currency"`
	Action   *readerAction `mapstructure:"action"`
}

// dispatchEvent is swapped in tests to observe dispatching.
var dispatchEvent = dispatchWebhookEvent

type webhookAck struct {
	Received bool `json:"received"`
}

// HandleWebhook verifies the Stripe signature over the raw body before the
// event is trusted. Unknown event types are acknowledged.
func HandleWebhook(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	secret := ctx.Config.Stripe.WebhookSecret
	if secret == "" {
		w.Error(http.StatusInternalServerError, middlewares.Responses.WebhookSecretMissing)
		return
	}

	event, err := ctx.Gateway.ConstructEvent(middlewares.RawBody(r), r.Header.Get(signatureHeader), secret)
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, middlewares.Responses.WebhookSignatureInvalid)
		return
	}

	dispatchEvent(w.Logger, event)
	w.JSON(http.StatusOK, webhookAck{Received: true})
}

func dispatchWebhookEvent(logger *log.Entry, event stripe.Event) {
	var object eventObject
	if event.Data != nil {
		if err := mapstructure.Decode(event.Data.Object, &object); err != nil {
			logger.WithError(err).Warn("webhook: could not decode event object")
		}
	}

	entry := logger.WithFields(log.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"object_id":  object.ID,
	})

	switch event.Type {
	case "payment_intent.succeeded":
		entry.WithFields(log.Fields{"amount": object.Amount, "currency": object.Currency}).Info("webhook: payment intent succeeded")
	case "payment_intent.payment_failed":
		entry.WithField("status", object.Status).Warn("webhook: payment intent failed")
	case "payment_intent.canceled":
		entry.Info("webhook: payment intent canceled")
	case "terminal.reader.action_succeeded":
		if object.Action != nil {
			entry = entry.WithField("action", object.Action.Type)
		}
		entry.Info("webhook: reader action succeeded")
	case "terminal.reader.action_failed":
		if object.Action != nil {
			entry = entry.WithFields(log.Fields{
				"action":          object.Action.Type,
				"failure_code":    object.Action.FailureCode,
				"failure_message": object.Action.FailureMessage,
			})
		}
		entry.Warn("webhook: reader action failed")
	case "invoice.paid":
		entry.Info("webhook: invoice paid")
	default:
		entry.Info("webhook: unhandled event type")
	}
}
