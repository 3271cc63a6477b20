package harvester

import (
	"strings"

	"review-harvester/internal/types"
)

// fingerprintLength is the number of leading runes of the normalized text
// used as the duplicate-detection key. Long enough that two genuinely
// different reviews rarely share it, short enough to tolerate trailing
// whitespace and truncation differences between sources. Two distinct
// reviews with an identical opening substring are treated as duplicates;
// that false-positive risk is accepted, not a defect.
const fingerprintLength = 64

// Fingerprint returns the content-derived duplicate-detection key for the
// given review text.
func Fingerprint(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > fingerprintLength {
		runes = runes[:fingerprintLength]
	}
	return string(runes)
}

// Deduplicator tracks seen records by content fingerprint for the lifetime
// of one run. The set only grows; a run covers a single product and ends in
// bounded time.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator creates an empty deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}),
	}
}

// IsNewAndRecord reports whether the review's fingerprint has not been seen
// before, recording it when new.
func (d *Deduplicator) IsNewAndRecord(review *types.Review) bool {
	fp := Fingerprint(review.Text)
	if _, ok := d.seen[fp]; ok {
		return false
	}
	d.seen[fp] = struct{}{}
	return true
}

// Len returns the number of distinct fingerprints recorded so far.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
