package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/urfave/negroni"
)

type BodyMode int

const (
	// BodyParsed normalizes url-encoded forms to JSON so handlers decode one format.
	BodyParsed BodyMode = iota
	// BodyRaw keeps the exact bytes, as needed for signature verification.
	BodyRaw
)

const (
	MaxRawBodyBytes    = int64(65536)
	MaxParsedBodyBytes = int64(1 << 20)

	rawBodyKey contextKey = "raw_body"
)

// RawBody returns the bytes captured by a BodyRaw parser.
func RawBody(r *http.Request) []byte {
	b, _ := r.Context().Value(rawBodyKey).([]byte)
	return b
}

func BodyParser(mode BodyMode) negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		if r.Body == nil || r.Body == http.NoBody {
			next(rw, r)
			return
		}

		limit := MaxParsedBodyBytes
		if mode == BodyRaw {
			limit = MaxRawBodyBytes
		}
		body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, limit))
		r.Body.Close()
		if err != nil {
			NewResponseWriter(rw, r).WriteJSON(http.StatusRequestEntityTooLarge, nil, err, Responses.BodyTooLarge)
			return
		}

		if mode == BodyRaw {
			r = r.WithContext(context.WithValue(r.Context(), rawBodyKey, body))
			r.Body = io.NopCloser(bytes.NewReader(body))
			next(rw, r)
			return
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/x-www-form-urlencoded" {
			values, err := url.ParseQuery(string(body))
			if err != nil {
				NewResponseWriter(rw, r).WriteJSON(http.StatusBadRequest, nil, err, "malformed form body")
				return
			}
			if body, err = json.Marshal(FormToMap(values)); err != nil {
				NewResponseWriter(rw, r).WriteJSON(http.StatusBadRequest, nil, err, "malformed form body")
				return
			}
			r.Header.Set("Content-Type", "application/json")
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next(rw, r)
	})
}

// FormToMap turns form values into a nested map, expanding bracket keys:
// metadata[name]=x becomes {"metadata": {"name": "x"}}. Repeated keys keep
// the last value.
func FormToMap(values url.Values) map[string]interface{} {
	out := make(map[string]interface{})
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		value := vals[len(vals)-1]

		path := splitFormKey(key)
		node := out
		for i, part := range path {
			if i == len(path)-1 {
				node[part] = value
				break
			}
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[part] = child
			}
			node = child
		}
	}
	return out
}

func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	parts := []string{key[:open]}
	for _, p := range strings.Split(key[open+1:len(key)-1], "][") {
		parts = append(parts, p)
	}
	return parts
}
