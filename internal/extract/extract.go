// Package extract turns a photographed ledger page into unsaved trip drafts
// using a Gemini model with a structured JSON response.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"haulbook/internal/core"
	"haulbook/internal/log"
	"haulbook/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/genai"
)

// MaxImageBytes bounds an uploaded ledger image.
const MaxImageBytes = 10 << 20

var (
	ErrNotImage      = errors.New("upload is not an image")
	ErrTooLarge      = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	ErrEmptyResponse = errors.New("model returned no rows")
)

const DefaultModel = "gemini-2.5-flash"

// generator is the slice of *genai.Models the extractor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Extractor struct {
	gen     generator
	model   string
	metrics *metrics.Metrics
}

// New creates an extractor backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, m *metrics.Metrics) (*Extractor, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newExtractor(client.Models, model, m), nil
}

func newExtractor(gen generator, model string, m *metrics.Metrics) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{gen: gen, model: model, metrics: m}
}

// SniffImage returns the detected MIME type of data, or ErrNotImage.
func SniffImage(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt.String(), nil
}

// Trips extracts one draft per ledger row. Drafts are normalized but not
// validated; the caller reviews them before saving.
func (e *Extractor) Trips(ctx context.Context, image []byte) ([]core.Trip, error) {
	mimeType, err := SniffImage(image)
	if err != nil {
		e.metrics.Extraction("rejected", 0)
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := e.gen.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		e.metrics.Extraction("error", 0)
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	drafts, err := parseDrafts(resp.Text())
	if err != nil {
		e.metrics.Extraction("error", 0)
		return nil, err
	}
	e.metrics.Extraction("ok", len(drafts))
	slog.InfoContext(ctx, "Extracted ledger rows",
		log.FieldComponent, log.ComponentExtract,
		log.FieldOperation, log.OpExtract,
		"model", e.model,
		"mime_type", mimeType,
		"rows", len(drafts))
	return drafts, nil
}
