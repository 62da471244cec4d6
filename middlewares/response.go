package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer http.ResponseWriter
	Logger *log.Entry
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{
		Writer: w,
		Logger: LoggerFromRequest(r),
	}
}

type ErrorResponse struct {
	Error  string      `json:"error"`
	Code   string      `json:"code,omitempty"`
	Fields interface{} `json:"fields,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

func (r *ResponseWriter) logger() *log.Entry {
	if r.Logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Logger
}

func (r *ResponseWriter) writePlainJSONResponse(statusCode int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
		return
	}

	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(statusCode)

	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

// WriteJSON writes data as the response body and logs the outcome. For error
// statuses with no data the body becomes {"error": message}.
func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	fields := log.Fields{"status_code": statusCode}
	if statusCode >= 200 && statusCode <= 299 {
		r.logger().WithFields(fields).Info("success")
	}
	if statusCode >= 300 {
		if data == nil {
			data = &ErrorResponse{Error: message}
		}
		if err == nil {
			err = errors.New(message)
		}
		fields["errors"] = data
		r.logger().WithFields(fields).Error(err)
	}
	r.writePlainJSONResponse(statusCode, data)
}

func (r *ResponseWriter) JSON(code int, data interface{}) {
	r.WriteJSON(code, data, nil, "")
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write([]byte(msg)); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

func (r *ResponseWriter) Bytes(code int, contentType string, b []byte) {
	r.Writer.Header().Set("Content-Type", contentType)
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

func (r *ResponseWriter) Error(code int, msg string) {
	r.WriteJSON(code, nil, nil, msg)
}
