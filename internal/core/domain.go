// Package core holds the bookkeeping documents (trips, parties, brokers,
// payments, owners, labour costs and product receipts) together with their
// normalisation and validation rules.
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid document")

	// ErrStale reports a conditional write that lost to a newer one.
	ErrStale = fmt.Errorf("%w: document changed since it was read", ErrConflict)
)

// Model carries the identity and timestamps shared by every document.
type Model struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// Base exposes the embedded model so generic stores can stamp ids and times.
func (m *Model) Base() *Model { return m }

// Document is implemented by every persisted entity.
type Document interface {
	Base() *Model
	Normalize()
	Validate() error
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// checker accumulates field errors; err returns nil when nothing failed.
type checker struct {
	fields map[string]string
}

func (c *checker) fail(field, msg string) {
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, seen := c.fields[field]; !seen {
		c.fields[field] = msg
	}
}

func (c *checker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "is required")
	}
}

func (c *checker) date(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "is required")
		return
	}
	if !ValidDate(value) {
		c.fail(field, "must be a date in YYYY-MM-DD format")
	}
}

func (c *checker) oneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.fail(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// Today returns the current local date in wire format.
func Today() string {
	return time.Now().Format(DateLayout)
}

// VehicleKey is the comparison key used to match trips to owner trucks.
func VehicleKey(number string) string {
	return strings.ToUpper(strings.Join(strings.Fields(number), ""))
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
