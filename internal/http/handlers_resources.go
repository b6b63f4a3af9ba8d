package http

import (
	"context"
	"net/http"
)

// documentService is the CRUD surface shared by every bookkeeping resource.
type documentService[T any, PT interface{ *T }] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, doc PT) error
	Update(ctx context.Context, id string, doc PT) error
	Delete(ctx context.Context, id string) (T, error)
}

// crud serves list/get/create/update/delete for one resource.
type crud[T any, PT interface{ *T }] struct {
	label string
	svc   documentService[T, PT]
}

// mountCRUD registers the five routes of a resource under path, e.g.
// "/api/trips" and "/api/trips/{id}".
func mountCRUD[T any, PT interface{ *T }](mux *http.ServeMux, path, label string, svc documentService[T, PT]) {
	c := &crud[T, PT]{label: label, svc: svc}
	mux.HandleFunc("GET "+path, c.list)
	mux.HandleFunc("POST "+path, c.create)
	mux.HandleFunc("GET "+path+"/{id}", c.get)
	mux.HandleFunc("PUT "+path+"/{id}", c.update)
	mux.HandleFunc("DELETE "+path+"/{id}", c.remove)
}

func (c *crud[T, PT]) list(w http.ResponseWriter, r *http.Request) {
	docs, err := c.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err, c.label)
		return
	}
	if docs == nil {
		docs = []T{}
	}
	OK(w, docs)
}

func (c *crud[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err, c.label)
		return
	}
	doc, err := c.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, c.label)
		return
	}
	OK(w, doc)
}

func (c *crud[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	doc := PT(new(T))
	if err := DecodeJSON(w, r, doc); err != nil {
		writeError(w, r, err, c.label)
		return
	}
	if err := c.svc.Create(r.Context(), doc); err != nil {
		writeError(w, r, err, c.label)
		return
	}
	Created(w, doc)
}

func (c *crud[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err, c.label)
		return
	}
	doc := PT(new(T))
	if err := DecodeJSON(w, r, doc); err != nil {
		writeError(w, r, err, c.label)
		return
	}
	if err := c.svc.Update(r.Context(), id, doc); err != nil {
		writeError(w, r, err, c.label)
		return
	}
	OK(w, doc)
}

func (c *crud[T, PT]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err, c.label)
		return
	}
	if _, err := c.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, c.label)
		return
	}
	OK(w, MessageBody{Message: c.label + " deleted successfully"})
}
