package middlewares

// Responses holds the fixed client-facing messages shared across handlers.
var Responses = struct {
	GatewayNotInitialized   string
	WebhookSecretMissing    string
	WebhookSignatureInvalid string
	FailedValidations       string
	InternalServerError     string
	BodyTooLarge            string
}{
	GatewayNotInitialized:   "Stripe client not initialized",
	WebhookSecretMissing:    "Stripe webhook secret not configured",
	WebhookSignatureInvalid: "Webhook signature verification failed",
	FailedValidations:       "Failed field validations",
	InternalServerError:     "Internal server error",
	BodyTooLarge:            "Request body too large",
}
