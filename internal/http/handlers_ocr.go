package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"haulbook/internal/core"
	"haulbook/internal/extract"
	"haulbook/internal/log"
)

// TripExtractor turns a ledger photo into unsaved trip drafts.
type TripExtractor interface {
	Trips(ctx context.Context, image []byte) ([]core.Trip, error)
}

var _ TripExtractor = (*extract.Extractor)(nil)

// multipartOverhead leaves room for boundaries and headers around the image.
const multipartOverhead = 1 << 20

func (s *Server) handleExtractTrips(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		ErrorResponse(http.StatusServiceUnavailable, CodeUnavailable,
			"Image extraction is not configured").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(extract.MaxImageBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge(w)
			return
		}
		BadRequestError("expected a multipart form with an image field").Write(w)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("image")
	if err != nil {
		BadRequestError("image file is required").Write(w)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, extract.MaxImageBytes+1))
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %w", err), "Image")
		return
	}
	if len(data) > extract.MaxImageBytes {
		tooLarge(w)
		return
	}

	drafts, err := s.extractor.Trips(r.Context(), data)
	switch {
	case errors.Is(err, extract.ErrNotImage):
		BadRequestError("upload is not an image").Write(w)
		return
	case errors.Is(err, extract.ErrTooLarge):
		tooLarge(w)
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger image extraction failed",
			log.FieldError, err,
			"bytes", len(data))
		ErrorResponse(http.StatusBadGateway, CodeUpstream, "Could not extract trips from the image").Write(w)
		return
	}
	OK(w, drafts)
}

func tooLarge(w http.ResponseWriter) {
	ErrorResponse(http.StatusRequestEntityTooLarge, CodeTooLarge,
		fmt.Sprintf("image exceeds %d MiB", extract.MaxImageBytes>>20)).Write(w)
}
