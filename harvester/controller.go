package harvester

import (
	"context"

	"review-harvester/internal/types"
	"review-harvester/providers"
)

// Controller orchestrates one harvest run: pull, normalize, dedupe,
// accumulate, flush, advance, in a bounded round loop. All run state is
// owned by one controller instance and mutated by a single thread of
// control; nothing survives between runs.
type Controller struct {
	provider   providers.Provider
	normalizer *Normalizer
	dedupe     *Deduplicator
	detector   *ConvergenceDetector
	flusher    *Flusher
	config     *types.Config
	logger     types.Logger

	saved int
}

// NewController creates a controller for one product harvest
func NewController(provider providers.Provider, sink Sink, productID, productURL string, config *types.Config, logger types.Logger) *Controller {
	return &Controller{
		provider:   provider,
		normalizer: NewNormalizer(productID, productURL),
		dedupe:     NewDeduplicator(),
		detector:   NewConvergenceDetector(config.StallThreshold),
		flusher:    NewFlusher(sink, config.BatchSize),
		config:     config,
		logger:     logger,
	}
}

// Run executes the harvest until the target is reached, the source is
// exhausted, or a fatal provider error occurs. The remaining buffer is
// always flushed before returning, so a fatal run still keeps everything
// collected up to that point. The returned summary always carries a
// definite reason; err is non-nil only for a fatal run.
func (c *Controller) Run(ctx context.Context) (*types.HarvestSummary, error) {
	reason := types.ReasonExhausted
	var fatal error

rounds:
	for round := 1; round <= c.config.MaxRounds; round++ {
		// Wall-clock budget expiry is treated the same as hitting the
		// round ceiling: exhausted, then finalize.
		if ctx.Err() != nil {
			c.logger.Warnf("Run budget expired after %d rounds, finalizing", round-1)
			break
		}

		records, err := c.provider.Pull(ctx)
		if err != nil {
			fatal = err
			break
		}

		accepted := 0
		for _, raw := range records {
			if c.saved == c.config.TargetCount {
				break
			}
			review := c.normalizer.Normalize(raw)
			if review == nil {
				continue
			}
			if !c.dedupe.IsNewAndRecord(review) {
				continue
			}
			if err := c.flusher.Add(*review); err != nil {
				fatal = err
				break rounds
			}
			c.saved++
			accepted++
		}

		c.logger.Debugf("Round %d: pulled %d, accepted %d, saved %d/%d",
			round, len(records), accepted, c.saved, c.config.TargetCount)

		if c.saved == c.config.TargetCount {
			reason = types.ReasonTargetReached
			break
		}
		if c.detector.Exhausted() {
			c.logger.Infof("Source converged after %d rounds", round)
			break
		}
		if round == c.config.MaxRounds {
			// Same terminal state as natural exhaustion, but worth
			// telling apart in the logs.
			c.logger.Warnf("Round safety ceiling (%d) reached before convergence", c.config.MaxRounds)
			break
		}

		outcome, err := c.provider.Advance(ctx)
		if err != nil {
			fatal = err
			break
		}
		if outcome == types.AdvanceExhausted {
			c.logger.Info("Source reported definitive end")
			break
		}
		c.detector.Observe(accepted, outcome == types.AdvanceChanged)
	}

	if fatal != nil {
		reason = types.ReasonFatal
		c.logger.Errorf("Fatal provider error, finalizing with buffered records: %v", fatal)
	}

	// Finalizing: flush the remainder regardless of how the loop ended.
	if err := c.flusher.FlushRemaining(); err != nil {
		c.logger.Errorf("Final flush failed: %v", err)
		if fatal == nil {
			fatal = err
			reason = types.ReasonFatal
		}
	}

	summary := &types.HarvestSummary{
		SavedCount: c.flusher.Flushed(),
		Reason:     reason,
	}
	c.logger.Infof("Harvest done: saved %d, reason %s", summary.SavedCount, summary.Reason)
	return summary, fatal
}
