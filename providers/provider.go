package providers

import (
	"context"
	"errors"

	"review-harvester/internal/types"
)

var (
	// ErrSurfaceLost means the automation surface is gone for good
	// (browser crashed, page context cancelled). Fatal for the run.
	ErrSurfaceLost = errors.New("automation surface lost")
	// ErrTransportLost means the API transport failed beyond the retry
	// ceiling at the connection level. Fatal for the run.
	ErrTransportLost = errors.New("api transport lost")
)

// Provider is the capability contract shared by all extraction sources.
//
// Pull returns whatever records are currently materialized; it may return the
// same records as the previous call and returns an empty slice when nothing
// is available. Advance attempts to make new data available and reports
// whether the attempt changed anything observable. Providers never error for
// "no more data" - an error from either method is unrecoverable and fatal
// for the run.
type Provider interface {
	Pull(ctx context.Context) ([]types.RawRecord, error)
	Advance(ctx context.Context) (types.AdvanceOutcome, error)
	Close()
}
