// Package storage persists bookkeeping documents as JSON, one collection per
// entity, behind a small DocStore port with SQLite and in-memory backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"haulbook/internal/core"

	"github.com/google/uuid"
)

// Collection names.
const (
	Trips           = "trips"
	Parties         = "parties"
	Brokers         = "brokers"
	Payments        = "payments"
	Owners          = "owners"
	Labours         = "labours"
	ProductReceives = "product_receives"
)

// Collections lists every collection the store knows about.
var Collections = []string{Trips, Parties, Brokers, Payments, Owners, Labours, ProductReceives}

// uniqueFields maps a collection to the top-level field that must be unique.
var uniqueFields = map[string]string{
	Trips:  "serialNumber",
	Owners: "name",
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

func checkCollection(name string) error {
	for _, c := range Collections {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("unknown collection %q", name)
}

func checkField(field string) error {
	if !fieldName.MatchString(field) {
		return fmt.Errorf("invalid field name %q", field)
	}
	return nil
}

// Record is a raw stored document.
type Record struct {
	ID        string
	Doc       []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocStore is the persistence port. List and Find return documents newest
// first. Insert fails with core.ErrConflict when a unique field collides;
// Get, Replace and Delete fail with core.ErrNotFound for unknown ids.
// ReplaceIf writes only while the stored updated_at still equals since and
// fails with core.ErrStale otherwise.
type DocStore interface {
	List(ctx context.Context, coll string) ([]Record, error)
	Find(ctx context.Context, coll, field string, value any) ([]Record, error)
	Get(ctx context.Context, coll, id string) (Record, error)
	Insert(ctx context.Context, coll string, rec Record) error
	Replace(ctx context.Context, coll string, rec Record) error
	ReplaceIf(ctx context.Context, coll string, rec Record, since time.Time) error
	Delete(ctx context.Context, coll, id string) error
	DeleteAll(ctx context.Context, coll string) error
	MaxInt(ctx context.Context, coll, field string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Collection is a typed view over one collection of a DocStore.
type Collection[T any, PT interface {
	*T
	core.Document
}] struct {
	store DocStore
	name  string
	now   func() time.Time
}

func NewCollection[T any, PT interface {
	*T
	core.Document
}](store DocStore, name string) *Collection[T, PT] {
	return &Collection[T, PT]{store: store, name: name, now: time.Now}
}

func (c *Collection[T, PT]) Name() string { return c.name }

func (c *Collection[T, PT]) decode(rec Record) (T, error) {
	var v T
	if err := json.Unmarshal(rec.Doc, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.name, rec.ID, err)
	}
	b := PT(&v).Base()
	b.ID, b.CreatedAt, b.UpdatedAt = rec.ID, rec.CreatedAt, rec.UpdatedAt
	return v, nil
}

func (c *Collection[T, PT]) decodeAll(recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// List returns every document, newest first.
func (c *Collection[T, PT]) List(ctx context.Context) ([]T, error) {
	recs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return c.decodeAll(recs)
}

// Find returns the documents whose top-level field equals value.
func (c *Collection[T, PT]) Find(ctx context.Context, field string, value any) ([]T, error) {
	recs, err := c.store.Find(ctx, c.name, field, value)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", c.name, field, err)
	}
	return c.decodeAll(recs)
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (T, error) {
	rec, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return c.decode(rec)
}

// Create assigns a fresh id and timestamps to doc and stores it.
func (c *Collection[T, PT]) Create(ctx context.Context, doc PT) error {
	now := c.now().UTC()
	b := doc.Base()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.store.Insert(ctx, c.name, Record{ID: b.ID, Doc: raw, CreatedAt: now, UpdatedAt: now}); err != nil {
		return fmt.Errorf("insert %s: %w", c.name, err)
	}
	return nil
}

// Update replaces the stored document with doc, keeping its id and creation time.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, doc PT) error {
	existing, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	b := doc.Base()
	b.ID = id
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = c.stamp(existing.UpdatedAt)

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.store.Replace(ctx, c.name, Record{ID: id, Doc: raw, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt}); err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	return nil
}

// UpdateIfUnchanged replaces doc only if nobody wrote it since it was read,
// judged by doc's UpdatedAt. A lost race fails with core.ErrStale.
func (c *Collection[T, PT]) UpdateIfUnchanged(ctx context.Context, doc PT) error {
	b := doc.Base()
	since := b.UpdatedAt
	b.UpdatedAt = c.stamp(since)

	raw, err := json.Marshal(doc)
	if err != nil {
		b.UpdatedAt = since
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	rec := Record{ID: b.ID, Doc: raw, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt}
	if err := c.store.ReplaceIf(ctx, c.name, rec, since); err != nil {
		b.UpdatedAt = since
		return fmt.Errorf("update %s/%s: %w", c.name, b.ID, err)
	}
	return nil
}

// stamp returns the next update time, always after prev so that every
// write moves updated_at.
func (c *Collection[T, PT]) stamp(prev time.Time) time.Time {
	now := c.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.name, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Repository groups the typed collections over one store.
type Repository struct {
	Store DocStore

	Trips           *Collection[core.Trip, *core.Trip]
	Parties         *Collection[core.Party, *core.Party]
	Brokers         *Collection[core.Broker, *core.Broker]
	Payments        *Collection[core.Payment, *core.Payment]
	Owners          *Collection[core.Owner, *core.Owner]
	Labours         *Collection[core.Labour, *core.Labour]
	ProductReceives *Collection[core.ProductReceive, *core.ProductReceive]
}

func NewRepository(store DocStore) *Repository {
	return &Repository{
		Store:           store,
		Trips:           NewCollection[core.Trip](store, Trips),
		Parties:         NewCollection[core.Party](store, Parties),
		Brokers:         NewCollection[core.Broker](store, Brokers),
		Payments:        NewCollection[core.Payment](store, Payments),
		Owners:          NewCollection[core.Owner](store, Owners),
		Labours:         NewCollection[core.Labour](store, Labours),
		ProductReceives: NewCollection[core.ProductReceive](store, ProductReceives),
	}
}

// MaxSerialNumber returns the largest trip serial number, or 0 with no trips.
func (r *Repository) MaxSerialNumber(ctx context.Context) (int, error) {
	n, err := r.Store.MaxInt(ctx, Trips, "serialNumber")
	if err != nil {
		return 0, fmt.Errorf("max serial number: %w", err)
	}
	return n, nil
}

// Reset empties every collection.
func (r *Repository) Reset(ctx context.Context) error {
	for _, c := range Collections {
		if err := r.Store.DeleteAll(ctx, c); err != nil {
			return fmt.Errorf("reset %s: %w", c, err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	return r.Store.Close()
}
