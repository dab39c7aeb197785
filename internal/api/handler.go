package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"trade-ledger-backend/internal/ingest"
	"trade-ledger-backend/internal/store"
)

// Ingester runs journal ingestion on demand.
type Ingester interface {
	ScanOnce(ctx context.Context) (*ingest.Summary, error)
	ProcessFiles(ctx context.Context, paths []string) (*ingest.Summary, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	ingester  Ingester
	uploadDir string
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, ingester Ingester, uploadDir string, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		ingester:  ingester,
		uploadDir: uploadDir,
		webpush:   webpushOptions,
	}
}
