package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/models"
	"bitbucket.org/parqueoasis/terminal/payments"
	"github.com/gorilla/schema"
	"github.com/stripe/stripe-go/v74"
)

const maxListLimit = int64(100)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func CreateConnectionToken(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	token, err := ctx.Gateway.CreateConnectionToken(r.Context())
	if err != nil {
		writeInternalError(ctx, w, err, "failed creating connection token")
		return
	}

	w.JSON(http.StatusOK, models.ConnectionToken{Secret: token.Secret})
}

func RegisterReader(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.RegisterReaderOpts
	if errs := validateJSON(r, models.RegisterReaderRules, &opts); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	reader, err := ctx.Gateway.RegisterReader(r.Context(), &payments.RegisterReaderOpts{
		RegistrationCode: opts.RegistrationCode,
		LocationID:       opts.LocationID,
		Label:            opts.Label,
	})
	if err != nil {
		writeGatewayError(ctx, w, err, "failed registering reader", lookupErrorKinds...)
		return
	}

	w.JSON(http.StatusOK, reader)
}

func GetReaders(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.GetReadersOpts
	if err := queryDecoder.Decode(&opts, r.URL.Query()); err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "invalid query parameters")
		return
	}
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	readers, err := ctx.Gateway.ListReaders(r.Context(), opts.Location, opts.Limit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing readers")
		return
	}
	if readers == nil {
		readers = []*stripe.TerminalReader{}
	}

	w.JSON(http.StatusOK, readers)
}

func CreateLocation(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.CreateLocationOpts
	if errs := validateJSON(r, models.CreateLocationRules, &opts); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	location, err := ctx.Gateway.CreateLocation(r.Context(), &payments.LocationOpts{
		DisplayName: opts.Label,
		Line1:       opts.Line1,
		City:        opts.City,
		State:       opts.State,
		Country:     opts.Country,
		PostalCode:  opts.PostalCode,
	})
	if err != nil {
		writeGatewayError(ctx, w, err, "failed creating location", payments.ErrorKinds.InvalidRequest)
		return
	}

	w.JSON(http.StatusOK, location)
}

func GetLocations(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	locations, err := ctx.Gateway.ListLocations(r.Context(), maxListLimit)
	if err != nil {
		writeInternalError(ctx, w, err, "failed listing locations")
		return
	}
	if locations == nil {
		locations = []*stripe.TerminalLocation{}
	}

	w.JSON(http.StatusOK, locations)
}

// ProcessPayment hands a payment intent to a reader. The reader collects the
// card asynchronously; callers poll GetPaymentIntentStatus for the outcome.
func ProcessPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.ProcessPaymentOpts
	if errs := validateJSON(r, models.ProcessPaymentRules, &opts); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	reader, err := ctx.Gateway.ProcessPaymentIntent(r.Context(), opts.ReaderID, opts.PaymentIntentID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed processing payment on reader", readerErrorKinds...)
		return
	}

	w.JSON(http.StatusOK, reader)
}

// SimulatePayment presents a test card on a simulated reader. Test mode only.
func SimulatePayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.SimulatePaymentOpts
	if errs := validateJSON(r, models.SimulatePaymentRules, &opts); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	reader, err := ctx.Gateway.PresentPaymentMethod(r.Context(), opts.ReaderID)
	if err != nil {
		writeGatewayError(ctx, w, err, "failed simulating payment", payments.ErrorKinds.ResourceMissing)
		return
	}

	w.JSON(http.StatusOK, reader)
}
