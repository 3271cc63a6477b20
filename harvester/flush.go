package harvester

import (
	"fmt"

	"review-harvester/internal/types"
)

// Sink receives finished batches of reviews. It is append-only from the
// engine's point of view and is supplied by the bootstrap layer.
type Sink interface {
	WriteBatch(reviews []types.Review) error
}

// Flusher buffers accepted reviews and emits them to the sink in fixed-size
// batches, oldest first. The buffer never grows past one batch.
type Flusher struct {
	sink      Sink
	batchSize int
	buffer    []types.Review
	flushed   int
}

// NewFlusher creates a flusher emitting batches of the given size
func NewFlusher(sink Sink, batchSize int) *Flusher {
	return &Flusher{
		sink:      sink,
		batchSize: batchSize,
	}
}

// Add appends one accepted review, flushing a full batch when the buffer
// reaches the batch size. On a sink error the batch stays buffered.
func (f *Flusher) Add(review types.Review) error {
	f.buffer = append(f.buffer, review)
	if len(f.buffer) < f.batchSize {
		return nil
	}
	return f.flush(f.buffer[:f.batchSize])
}

// FlushRemaining emits whatever is left in the buffer, even a partial batch,
// even a single record. A no-op on an empty buffer.
func (f *Flusher) FlushRemaining() error {
	if len(f.buffer) == 0 {
		return nil
	}
	return f.flush(f.buffer)
}

func (f *Flusher) flush(batch []types.Review) error {
	if err := f.sink.WriteBatch(batch); err != nil {
		return fmt.Errorf("failed to flush batch of %d: %w", len(batch), err)
	}
	f.flushed += len(batch)
	f.buffer = f.buffer[len(batch):]
	return nil
}

// Flushed returns the number of reviews emitted to the sink so far.
func (f *Flusher) Flushed() int {
	return f.flushed
}

// Pending returns the number of buffered reviews awaiting flush.
func (f *Flusher) Pending() int {
	return len(f.buffer)
}
