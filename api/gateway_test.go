package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/payments"
	"bitbucket.org/parqueoasis/terminal/server"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
)

var errNotStubbed = errors.New("fake gateway: call not stubbed")

// fakeGateway implements payments.Gateway with per-method stubs and records
// the order of calls.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	CreateConnectionTokenFunc func(ctx context.Context) (*stripe.TerminalConnectionToken, error)
	RegisterReaderFunc        func(ctx context.Context, opts *payments.RegisterReaderOpts) (*stripe.TerminalReader, error)
	ListReadersFunc           func(ctx context.Context, locationID string, limit int64) ([]*stripe.TerminalReader, error)
	ProcessPaymentIntentFunc  func(ctx context.Context, readerID, paymentIntentID string) (*stripe.TerminalReader, error)
	CancelReaderActionFunc    func(ctx context.Context, readerID string) (*stripe.TerminalReader, error)
	PresentPaymentMethodFunc  func(ctx context.Context, readerID string) (*stripe.TerminalReader, error)
	CreateLocationFunc        func(ctx context.Context, opts *payments.LocationOpts) (*stripe.TerminalLocation, error)
	ListLocationsFunc         func(ctx context.Context, limit int64) ([]*stripe.TerminalLocation, error)
	ListProductsFunc          func(ctx context.Context, limit int64) ([]*stripe.Product, error)
	ListPricesFunc            func(ctx context.Context, limit int64) ([]*stripe.Price, error)
	CreateCustomerFunc        func(ctx context.Context, name, email string) (*stripe.Customer, error)
	ListCustomersFunc         func(ctx context.Context, limit int64) ([]*stripe.Customer, error)
	CreatePaymentIntentFunc   func(ctx context.Context, opts *payments.PaymentIntentOpts) (*stripe.PaymentIntent, error)
	GetPaymentIntentFunc      func(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CancelPaymentIntentFunc   func(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	GetInvoiceFunc            func(ctx context.Context, id string) (*stripe.Invoice, error)
	ListInvoicesFunc          func(ctx context.Context, limit int64) ([]*stripe.Invoice, error)
	AttachInvoicePaymentFunc  func(ctx context.Context, invoiceID, paymentIntentID string) (*stripe.Invoice, error)
	ConstructEventFunc        func(payload []byte, signature, secret string) (stripe.Event, error)
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) CreateConnectionToken(ctx context.Context) (*stripe.TerminalConnectionToken, error) {
	f.record("CreateConnectionToken")
	if f.CreateConnectionTokenFunc != nil {
		return f.CreateConnectionTokenFunc(ctx)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) RegisterReader(ctx context.Context, opts *payments.RegisterReaderOpts) (*stripe.TerminalReader, error) {
	f.record("RegisterReader")
	if f.RegisterReaderFunc != nil {
		return f.RegisterReaderFunc(ctx, opts)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListReaders(ctx context.Context, locationID string, limit int64) ([]*stripe.TerminalReader, error) {
	f.record("ListReaders")
	if f.ListReadersFunc != nil {
		return f.ListReadersFunc(ctx, locationID, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ProcessPaymentIntent(ctx context.Context, readerID, paymentIntentID string) (*stripe.TerminalReader, error) {
	f.record("ProcessPaymentIntent")
	if f.ProcessPaymentIntentFunc != nil {
		return f.ProcessPaymentIntentFunc(ctx, readerID, paymentIntentID)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) CancelReaderAction(ctx context.Context, readerID string) (*stripe.TerminalReader, error) {
	f.record("CancelReaderAction")
	if f.CancelReaderActionFunc != nil {
		return f.CancelReaderActionFunc(ctx, readerID)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) PresentPaymentMethod(ctx context.Context, readerID string) (*stripe.TerminalReader, error) {
	f.record("PresentPaymentMethod")
	if f.PresentPaymentMethodFunc != nil {
		return f.PresentPaymentMethodFunc(ctx, readerID)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) CreateLocation(ctx context.Context, opts *payments.LocationOpts) (*stripe.TerminalLocation, error) {
	f.record("CreateLocation")
	if f.CreateLocationFunc != nil {
		return f.CreateLocationFunc(ctx, opts)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListLocations(ctx context.Context, limit int64) ([]*stripe.TerminalLocation, error) {
	f.record("ListLocations")
	if f.ListLocationsFunc != nil {
		return f.ListLocationsFunc(ctx, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error) {
	f.record("ListProducts")
	if f.ListProductsFunc != nil {
		return f.ListProductsFunc(ctx, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListPrices(ctx context.Context, limit int64) ([]*stripe.Price, error) {
	f.record("ListPrices")
	if f.ListPricesFunc != nil {
		return f.ListPricesFunc(ctx, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, name, email string) (*stripe.Customer, error) {
	f.record("CreateCustomer")
	if f.CreateCustomerFunc != nil {
		return f.CreateCustomerFunc(ctx, name, email)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error) {
	f.record("ListCustomers")
	if f.ListCustomersFunc != nil {
		return f.ListCustomersFunc(ctx, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) CreatePaymentIntent(ctx context.Context, opts *payments.PaymentIntentOpts) (*stripe.PaymentIntent, error) {
	f.record("CreatePaymentIntent")
	if f.CreatePaymentIntentFunc != nil {
		return f.CreatePaymentIntentFunc(ctx, opts)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	f.record("GetPaymentIntent")
	if f.GetPaymentIntentFunc != nil {
		return f.GetPaymentIntentFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) CancelPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	f.record("CancelPaymentIntent")
	if f.CancelPaymentIntentFunc != nil {
		return f.CancelPaymentIntentFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) GetInvoice(ctx context.Context, id string) (*stripe.Invoice, error) {
	f.record("GetInvoice")
	if f.GetInvoiceFunc != nil {
		return f.GetInvoiceFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error) {
	f.record("ListInvoices")
	if f.ListInvoicesFunc != nil {
		return f.ListInvoicesFunc(ctx, limit)
	}
	return nil, errNotStubbed
}

func (f *fakeGateway) AttachInvoicePayment(ctx context.Context, invoiceID, paymentIntentID string) (*stripe.Invoice, error) {
	f.record("AttachInvoicePayment")
	if f.AttachInvoicePaymentFunc != nil {
		return f.AttachInvoicePaymentFunc(ctx, invoiceID, paymentIntentID)
	}
	return nil, errNotStubbed
}

// ConstructEvent defaults to the real signature check.
func (f *fakeGateway) ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	f.record("ConstructEvent")
	if f.ConstructEventFunc != nil {
		return f.ConstructEventFunc(payload, signature, secret)
	}
	return payments.ConstructEvent(payload, signature, secret)
}

func stripeErr(code stripe.ErrorCode, errType stripe.ErrorType, status int) error {
	return &stripe.Error{
		Code:           code,
		Type:           errType,
		HTTPStatusCode: status,
		Msg:            "stripe says " + string(code),
	}
}

func testConfig() config.Configuration {
	return config.Configuration{
		Environment:   "test",
		StaticDir:     "./testdata",
		ProductsLimit: 100,
	}
}

func newTestHandler(gateway payments.Gateway, conf config.Configuration) http.Handler {
	ctx := &config.AppContext{Config: conf, Gateway: gateway}
	return server.NewHandler(ctx, GetRoutes())
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, h http.Handler, path, form string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
