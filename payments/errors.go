package payments

import (
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v74"
)

// ErrorKind is the closed set of Stripe failures the api layer reacts to.
type ErrorKind string

var ErrorKinds = struct {
	Unknown                 ErrorKind
	ResourceMissing         ErrorKind
	InvalidRequest          ErrorKind
	ParameterInvalidInteger ErrorKind
	ReaderTimeout           ErrorKind
	ReaderBusy              ErrorKind
	ReaderOffline           ErrorKind
}{
	Unknown:                 "unknown",
	ResourceMissing:         "resource_missing",
	InvalidRequest:          "invalid_request",
	ParameterInvalidInteger: "parameter_invalid_integer",
	ReaderTimeout:           "reader_timeout",
	ReaderBusy:              "reader_busy",
	ReaderOffline:           "reader_offline",
}

var codeKinds = map[stripe.ErrorCode]ErrorKind{
	stripe.ErrorCode("resource_missing"):          ErrorKinds.ResourceMissing,
	stripe.ErrorCode("parameter_invalid_integer"): ErrorKinds.ParameterInvalidInteger,
	stripe.ErrorCode("terminal_reader_timeout"):   ErrorKinds.ReaderTimeout,
	stripe.ErrorCode("terminal_reader_busy"):      ErrorKinds.ReaderBusy,
	stripe.ErrorCode("terminal_reader_offline"):   ErrorKinds.ReaderOffline,
}

// Classify maps an error returned by the Gateway to an ErrorKind. The Stripe
// error code wins over the error type, so a resource_missing error (which is
// also an invalid_request_error) classifies as ResourceMissing.
func Classify(err error) ErrorKind {
	var stripeErr *stripe.Error
	if err == nil || !errors.As(err, &stripeErr) {
		return ErrorKinds.Unknown
	}
	if kind, ok := codeKinds[stripeErr.Code]; ok {
		return kind
	}
	if stripeErr.Type == stripe.ErrorTypeInvalidRequest {
		return ErrorKinds.InvalidRequest
	}
	return ErrorKinds.Unknown
}

// Message returns the gateway's own message for classified errors.
func Message(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Msg
	}
	return ""
}
