package api

import (
	"net/http"
	"net/url"

	"bitbucket.org/parqueoasis/terminal/config"
	"bitbucket.org/parqueoasis/terminal/middlewares"
	"bitbucket.org/parqueoasis/terminal/payments"
	"github.com/thedevsaddam/govalidator"
)

var (
	lookupErrorKinds = []payments.ErrorKind{payments.ErrorKinds.ResourceMissing, payments.ErrorKinds.InvalidRequest}
	readerErrorKinds = []payments.ErrorKind{
		payments.ErrorKinds.ResourceMissing,
		payments.ErrorKinds.ReaderTimeout,
		payments.ErrorKinds.ReaderBusy,
		payments.ErrorKinds.ReaderOffline,
	}
)

var errorKindStatus = map[payments.ErrorKind]int{
	payments.ErrorKinds.ResourceMissing:         http.StatusNotFound,
	payments.ErrorKinds.InvalidRequest:          http.StatusBadRequest,
	payments.ErrorKinds.ParameterInvalidInteger: http.StatusBadRequest,
	payments.ErrorKinds.ReaderTimeout:           http.StatusConflict,
	payments.ErrorKinds.ReaderBusy:              http.StatusConflict,
	payments.ErrorKinds.ReaderOffline:           http.StatusServiceUnavailable,
}

// StatusForError resolves the HTTP status for a gateway error. Only the
// kinds an endpoint surfaces get their mapped status; everything else is a
// 500.
func StatusForError(err error, surfaced ...payments.ErrorKind) (int, payments.ErrorKind) {
	kind := payments.Classify(err)
	for _, k := range surfaced {
		if k != kind {
			continue
		}
		if status, ok := errorKindStatus[kind]; ok {
			return status, kind
		}
	}
	return http.StatusInternalServerError, payments.ErrorKinds.Unknown
}

// writeGatewayError answers with the status mapped from the Stripe error
// when its kind is one of surfaced. Those responses carry Stripe's own
// message and the error kind.
func writeGatewayError(ctx *config.AppContext, w *middlewares.ResponseWriter, err error, message string, surfaced ...payments.ErrorKind) {
	status, kind := StatusForError(err, surfaced...)
	if status == http.StatusInternalServerError {
		writeInternalError(ctx, w, err, message)
		return
	}

	resp := &middlewares.ErrorResponse{Error: message, Code: string(kind)}
	if msg := payments.Message(err); msg != "" {
		resp.Error = msg
	}
	w.WriteJSON(status, resp, err, message)
}

func writeInternalError(ctx *config.AppContext, w *middlewares.ResponseWriter, err error, message string) {
	resp := &middlewares.ErrorResponse{Error: message}
	if err != nil && !ctx.Config.IsProduction() {
		resp.Detail = err.Error()
	}
	w.WriteJSON(http.StatusInternalServerError, resp, err, message)
}

func writeValidationErrors(w *middlewares.ResponseWriter, errs url.Values) {
	w.WriteJSON(http.StatusBadRequest, &middlewares.ErrorResponse{
		Error:  middlewares.Responses.FailedValidations,
		Fields: errs,
	}, nil, middlewares.Responses.FailedValidations)
}

func validateJSON(r *http.Request, rules govalidator.MapData, data interface{}) url.Values {
	v := govalidator.New(govalidator.Options{
		Request: r,
		Rules:   rules,
		Data:    data,
	})
	return v.ValidateJSON()
}
