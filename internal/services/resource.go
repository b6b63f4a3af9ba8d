package services

import (
	"context"
	"fmt"

	"haulbook/internal/core"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// Resource is plain CRUD over one collection: normalize, validate, persist,
// then notify. Trips, payments and owners wrap it with ledger bookkeeping.
type Resource[T any, PT interface {
	*T
	core.Document
}] struct {
	coll     *storage.Collection[T, PT]
	check    func(PT) error
	onChange func(ctx context.Context)
	metrics  *metrics.Metrics
}

// ResourceOption customises a Resource.
type ResourceOption[T any, PT interface {
	*T
	core.Document
}] func(*Resource[T, PT])

// WithCheck adds a validation step that runs after Validate.
func WithCheck[T any, PT interface {
	*T
	core.Document
}](check func(PT) error) ResourceOption[T, PT] {
	return func(r *Resource[T, PT]) { r.check = check }
}

// WithOnChange registers a callback run after every committed write.
func WithOnChange[T any, PT interface {
	*T
	core.Document
}](fn func(ctx context.Context)) ResourceOption[T, PT] {
	return func(r *Resource[T, PT]) { r.onChange = fn }
}

// WithMetrics counts committed writes.
func WithMetrics[T any, PT interface {
	*T
	core.Document
}](m *metrics.Metrics) ResourceOption[T, PT] {
	return func(r *Resource[T, PT]) { r.metrics = m }
}

func NewResource[T any, PT interface {
	*T
	core.Document
}](coll *storage.Collection[T, PT], opts ...ResourceOption[T, PT]) *Resource[T, PT] {
	r := &Resource[T, PT]{coll: coll}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resource[T, PT]) Name() string { return r.coll.Name() }

func (r *Resource[T, PT]) List(ctx context.Context) ([]T, error) {
	return r.coll.List(ctx)
}

func (r *Resource[T, PT]) Get(ctx context.Context, id string) (T, error) {
	return r.coll.Get(ctx, id)
}

// Prepare normalizes and validates doc without saving it.
func (r *Resource[T, PT]) Prepare(doc PT) error {
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		return err
	}
	if r.check != nil {
		return r.check(doc)
	}
	return nil
}

func (r *Resource[T, PT]) Create(ctx context.Context, doc PT) error {
	if err := r.Prepare(doc); err != nil {
		return err
	}
	if err := r.coll.Create(ctx, doc); err != nil {
		return err
	}
	r.changed(ctx, log.OpCreate)
	return nil
}

func (r *Resource[T, PT]) Update(ctx context.Context, id string, doc PT) error {
	if err := r.Prepare(doc); err != nil {
		return err
	}
	if err := r.coll.Update(ctx, id, doc); err != nil {
		return err
	}
	r.changed(ctx, log.OpUpdate)
	return nil
}

// Delete removes the document and returns what was stored.
func (r *Resource[T, PT]) Delete(ctx context.Context, id string) (T, error) {
	doc, err := r.coll.Get(ctx, id)
	if err != nil {
		return doc, err
	}
	if err := r.coll.Delete(ctx, id); err != nil {
		return doc, fmt.Errorf("delete %s: %w", r.coll.Name(), err)
	}
	r.changed(ctx, log.OpDelete)
	return doc, nil
}

func (r *Resource[T, PT]) changed(ctx context.Context, op string) {
	r.metrics.Write(r.coll.Name(), op)
	if r.onChange != nil {
		r.onChange(ctx)
	}
}
