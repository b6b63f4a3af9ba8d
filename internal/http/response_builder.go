package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidInput = "INVALID_INPUT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeUpstream     = "EXECUTION_FAILED"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageBody acknowledges an operation with no document to return.
type MessageBody struct {
	Message string `json:"message"`
}

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "status_code", b.statusCode, "error", err)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Message: message, Code: code})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeInvalidInput, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, CodeConflict, message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	NewResponse().JSON(v).Write(w)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) {
	NewResponse().Status(http.StatusCreated).JSON(v).Write(w)
}
