package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"review-harvester/internal/types"
)

// Writer persists review batches as NDJSON, one review per line, appending
// to the target file so interrupted runs keep what they already flushed.
type Writer struct {
	file   *os.File
	enc    *json.Encoder
	logger types.Logger
}

// NewWriter opens (or creates) the target file for appending
func NewWriter(path string, logger types.Logger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	return &Writer{
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger,
	}, nil
}

// WriteBatch appends one batch of reviews in acceptance order.
func (w *Writer) WriteBatch(reviews []types.Review) error {
	for _, review := range reviews {
		if err := w.enc.Encode(review); err != nil {
			return fmt.Errorf("failed to encode review %s: %w", review.ID, err)
		}
	}

	w.logger.Debugf("Wrote batch of %d reviews", len(reviews))
	return nil
}

// Close closes the underlying file
func (w *Writer) Close() error {
	return w.file.Close()
}
