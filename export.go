package datasetgen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultExportDelay is the pause between items of a bulk export.
const DefaultExportDelay = 300 * time.Millisecond

// Exporter saves generated images through a Storage, pacing bulk exports so
// the receiving side is not flooded.
type Exporter struct {
	storage Storage
	delay   time.Duration
	logger  *zap.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExportDelay sets the pause between items of ExportAll.
func WithExportDelay(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		e.delay = d
	}
}

// WithExportLogger sets the exporter's logger.
func WithExportLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter creates an Exporter writing to storage.
func NewExporter(storage Storage, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		storage: storage,
		delay:   DefaultExportDelay,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "exporter"))
	return e
}

// Export saves a single image under its ExportFilename.
func (e *Exporter) Export(ctx context.Context, img GeneratedImage) (StorageResult, error) {
	if e == nil || e.storage == nil {
		return StorageResult{}, ErrStorageNotConfigured
	}

	payload := img.Payload()
	data, err := payload.Bytes()
	if err != nil {
		return StorageResult{}, fmt.Errorf("image %s: %w", img.ID, err)
	}

	path := ExportFilename(img)
	url, err := e.storage.SaveFile(ctx, data, path, payload.MIMEType)
	if err != nil {
		return StorageResult{}, fmt.Errorf("saving %s: %w", path, err)
	}

	return StorageResult{
		ImageID: img.ID,
		URL:     url,
		Path:    path,
		Size:    len(data),
	}, nil
}

// ExportAll saves images in order, waiting the configured delay between
// items. It returns the results saved before the first failure.
func (e *Exporter) ExportAll(ctx context.Context, images []GeneratedImage) ([]StorageResult, error) {
	if e == nil || e.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	results := make([]StorageResult, 0, len(images))
	for i, img := range images {
		if i > 0 && e.delay > 0 {
			timer := time.NewTimer(e.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}

		res, err := e.Export(ctx, img)
		if err != nil {
			e.logger.Error("export failed", zap.String("image_id", img.ID), zap.Error(err))
			return results, err
		}
		results = append(results, res)
	}

	e.logger.Info("export completed", zap.Int("images", len(results)))
	return results, nil
}
