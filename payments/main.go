package payments

import (
	"context"
	"net/http"

	"bitbucket.org/parqueoasis/terminal/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

const (
	// attach_payment is only served on API versions that know about invoice payments.
	invoicePaymentsAPIVersion = "2025-03-31.basil"

	cardPresent = "card_present"
)

var ErrMissingSecretKey = errors.New("stripe secret key is not configured")

// Gateway is the subset of the Stripe API the relay forwards to.
type Gateway interface {
	CreateConnectionToken(ctx context.Context) (*stripe.TerminalConnectionToken, error)

	RegisterReader(ctx context.Context, opts *RegisterReaderOpts) (*stripe.TerminalReader, error)
	ListReaders(ctx context.Context, locationID string, limit int64) ([]*stripe.TerminalReader, error)
	ProcessPaymentIntent(ctx context.Context, readerID, paymentIntentID string) (*stripe.TerminalReader, error)
	CancelReaderAction(ctx context.Context, readerID string) (*stripe.TerminalReader, error)
	PresentPaymentMethod(ctx context.Context, readerID string) (*stripe.TerminalReader, error)

	CreateLocation(ctx context.Context, opts *LocationOpts) (*stripe.TerminalLocation, error)
	ListLocations(ctx context.Context, limit int64) ([]*stripe.TerminalLocation, error)

	ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error)
	ListPrices(ctx context.Context, limit int64) ([]*stripe.Price, error)

	CreateCustomer(ctx context.Context, name, email string) (*stripe.Customer, error)
	ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error)

	CreatePaymentIntent(ctx context.Context, opts *PaymentIntentOpts) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)

	GetInvoice(ctx context.Context, id string) (*stripe.Invoice, error)
	ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error)
	AttachInvoicePayment(ctx context.Context, invoiceID, paymentIntentID string) (*stripe.Invoice, error)

	ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error)
}

type RegisterReaderOpts struct {
	RegistrationCode string
	LocationID       string
	Label            string
}

type LocationOpts struct {
	DisplayName string
	Line1       string
	City        string
	State       string
	Country     string
	PostalCode  string
}

type PaymentIntentOpts struct {
	Amount      int64
	Currency    string
	CustomerID  string
	Description string
	Metadata    map[string]string
}

type Config struct {
	SecretKey string
	APIBase   string
	Logger    *log.Entry
}

// StripeGateway implements Gateway with stripe-go. Network retries are
// disabled: every failure is surfaced to the caller immediately.
type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(conf Config) (*StripeGateway, error) {
	if conf.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}

	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
	}
	if conf.Logger != nil {
		backendConfig.LeveledLogger = conf.Logger
	}
	if conf.APIBase != "" {
		backendConfig.URL = stripe.String(conf.APIBase)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	}

	return &StripeGateway{sc: client.New(conf.SecretKey, backends)}, nil
}

func observe(operation string, err error) error {
	metrics.ObserveGatewayCall(operation, err)
	if err != nil {
		return errors.Wrapf(err, "stripe %s", operation)
	}
	return nil
}

func (g *StripeGateway) CreateConnectionToken(ctx context.Context) (*stripe.TerminalConnectionToken, error) {
	params := &stripe.TerminalConnectionTokenParams{}
	params.Context = ctx
	token, err := g.sc.TerminalConnectionTokens.New(params)
	return token, observe("terminal.connection_tokens.create", err)
}

func (g *StripeGateway) RegisterReader(ctx context.Context, opts *RegisterReaderOpts) (*stripe.TerminalReader, error) {
	params := &stripe.TerminalReaderParams{
		RegistrationCode: stripe.String(opts.RegistrationCode),
		Location:         stripe.String(opts.LocationID),
	}
	if opts.Label != "" {
		params.Label = stripe.String(opts.Label)
	}
	params.Context = ctx
	reader, err := g.sc.TerminalReaders.New(params)
	return reader, observe("terminal.readers.create", err)
}

func (g *StripeGateway) ListReaders(ctx context.Context, locationID string, limit int64) ([]*stripe.TerminalReader, error) {
	params := &stripe.TerminalReaderListParams{}
	if locationID != "" {
		params.Location = stripe.String(locationID)
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var readers []*stripe.TerminalReader
	iter := g.sc.TerminalReaders.List(params)
	for int64(len(readers)) < limit && iter.Next() {
		readers = append(readers, iter.TerminalReader())
	}
	return readers, observe("terminal.readers.list", iter.Err())
}

func (g *StripeGateway) ProcessPaymentIntent(ctx context.Context, readerID, paymentIntentID string) (*stripe.TerminalReader, error) {
	params := &stripe.TerminalReaderProcessPaymentIntentParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	reader, err := g.sc.TerminalReaders.ProcessPaymentIntent(readerID, params)
	return reader, observe("terminal.readers.process_payment_intent", err)
}

func (g *StripeGateway) CancelReaderAction(ctx context.Context, readerID string) (*stripe.TerminalReader, error) {
	params := &stripe.TerminalReaderCancelActionParams{}
	params.Context = ctx
	reader, err := g.sc.TerminalReaders.CancelAction(readerID, params)
	return reader, observe("terminal.readers.cancel_action", err)
}

func (g *StripeGateway) PresentPaymentMethod(ctx context.Context, readerID string) (*stripe.TerminalReader, error) {
	params := &stripe.TestHelpersTerminalReaderPresentPaymentMethodParams{}
	params.Context = ctx
	reader, err := g.sc.TestHelpersTerminalReaders.PresentPaymentMethod(readerID, params)
	return reader, observe("test_helpers.terminal.readers.present_payment_method", err)
}

func (g *StripeGateway) CreateLocation(ctx context.Context, opts *LocationOpts) (*stripe.TerminalLocation, error) {
	params := &stripe.TerminalLocationParams{
		DisplayName: stripe.String(opts.DisplayName),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(opts.Line1),
			City:       stripe.String(opts.City),
			State:      stripe.String(opts.State),
			Country:    stripe.String(opts.Country),
			PostalCode: stripe.String(opts.PostalCode),
		},
	}
	params.Context = ctx
	location, err := g.sc.TerminalLocations.New(params)
	return location, observe("terminal.locations.create", err)
}

func (g *StripeGateway) ListLocations(ctx context.Context, limit int64) ([]*stripe.TerminalLocation, error) {
	params := &stripe.TerminalLocationListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var locations []*stripe.TerminalLocation
	iter := g.sc.TerminalLocations.List(params)
	for int64(len(locations)) < limit && iter.Next() {
		locations = append(locations, iter.TerminalLocation())
	}
	return locations, observe("terminal.locations.list", iter.Err())
}

func (g *StripeGateway) ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var products []*stripe.Product
	iter := g.sc.Products.List(params)
	for int64(len(products)) < limit && iter.Next() {
		products = append(products, iter.Product())
	}
	return products, observe("products.list", iter.Err())
}

func (g *StripeGateway) ListPrices(ctx context.Context, limit int64) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var prices []*stripe.Price
	iter := g.sc.Prices.List(params)
	for int64(len(prices)) < limit && iter.Next() {
		prices = append(prices, iter.Price())
	}
	return prices, observe("prices.list", iter.Err())
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, name, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	customer, err := g.sc.Customers.New(params)
	return customer, observe("customers.create", err)
}

func (g *StripeGateway) ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var customers []*stripe.Customer
	iter := g.sc.Customers.List(params)
	for int64(len(customers)) < limit && iter.Next() {
		customers = append(customers, iter.Customer())
	}
	return customers, observe("customers.list", iter.Err())
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, opts *PaymentIntentOpts) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(opts.Amount),
		Currency:           stripe.String(opts.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{cardPresent}),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic)),
	}
	if opts.CustomerID != "" {
		params.Customer = stripe.String(opts.CustomerID)
	}
	if opts.Description != "" {
		params.Description = stripe.String(opts.Description)
	}
	for k, v := range opts.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	intent, err := g.sc.PaymentIntents.New(params)
	return intent, observe("payment_intents.create", err)
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := g.sc.PaymentIntents.Get(id, params)
	return intent, observe("payment_intents.retrieve", err)
}

func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	intent, err := g.sc.PaymentIntents.Cancel(id, params)
	return intent, observe("payment_intents.cancel", err)
}

func (g *StripeGateway) GetInvoice(ctx context.Context, id string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	invoice, err := g.sc.Invoices.Get(id, params)
	return invoice, observe("invoices.retrieve", err)
}

func (g *StripeGateway) ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var invoices []*stripe.Invoice
	iter := g.sc.Invoices.List(params)
	for int64(len(invoices)) < limit && iter.Next() {
		invoices = append(invoices, iter.Invoice())
	}
	return invoices, observe("invoices.list", iter.Err())
}

type invoiceAttachPaymentParams struct {
	stripe.Params `form:"*"`
	PaymentIntent *string `form:"payment_intent"`
}

// AttachInvoicePayment links a payment intent to an open invoice so the
// invoice is marked paid once the intent succeeds on the reader. stripe-go
// v74 predates the endpoint, so the call goes through the raw backend.
func (g *StripeGateway) AttachInvoicePayment(ctx context.Context, invoiceID, paymentIntentID string) (*stripe.Invoice, error) {
	params := &invoiceAttachPaymentParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Headers = http.Header{"Stripe-Version": []string{invoicePaymentsAPIVersion}}

	invoice := &stripe.Invoice{}
	path := stripe.FormatURLPath("/v1/invoices/%s/attach_payment", invoiceID)
	err := g.sc.Invoices.B.Call(http.MethodPost, path, g.sc.Invoices.Key, params, invoice)
	return invoice, observe("invoices.attach_payment", err)
}

func (g *StripeGateway) ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	return ConstructEvent(payload, signature, secret)
}

// ConstructEvent verifies the signature and timestamp of a webhook payload.
// Events are accepted whatever API version the account or endpoint is
// pinned to; only the fields logged on dispatch are read from them.
func ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
