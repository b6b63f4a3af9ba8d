package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxJSONBody bounds a JSON request body.
const maxJSONBody = 1 << 20

// requestError is a client mistake in the request itself, reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// DecodeJSON reads a single JSON value from the body into dst. Unknown fields
// are ignored so clients may echo back server fields such as id.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("Content-Type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		case errors.As(err, &syntaxErr):
			return badRequest("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return badRequest("field %q has the wrong type", typeErr.Field)
		default:
			return badRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON value")
	}
	return nil
}

// PathID returns the {id} path segment.
func PathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", badRequest("missing id")
	}
	return id, nil
}

// QueryBool reads a boolean query parameter, defaulting when absent.
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, badRequest("query parameter %s must be true or false", key)
	}
	return b, nil
}
