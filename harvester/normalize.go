package harvester

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"review-harvester/internal/types"
)

const (
	// minTextLength is the only content-based filter: records whose text is
	// shorter than this after trimming are dropped.
	minTextLength = 5

	// placeholderReviewer is used when the source carries no reviewer name.
	placeholderReviewer = "Anonymous"
)

var (
	// CDN format-conversion suffixes appended to image URLs, e.g.
	// "img_.avif", "img_.webp".
	formatSuffixRe = regexp.MustCompile(`_?\.(avif|webp)$`)
	// CDN size suffixes, e.g. "img_640x640", "img_50x".
	sizeSuffixRe = regexp.MustCompile(`_\d+x\d*$`)
)

// Normalizer converts raw records from any data source into the canonical
// Review shape for one product.
type Normalizer struct {
	productID  string
	productURL string
}

// NewNormalizer creates a normalizer for the given product
func NewNormalizer(productID, productURL string) *Normalizer {
	return &Normalizer{
		productID:  productID,
		productURL: productURL,
	}
}

// Normalize converts one raw record into a Review, or nil when the record is
// dropped (missing or too-short text). Dropping is data-quality filtering,
// not an error.
func (n *Normalizer) Normalize(raw types.RawRecord) *types.Review {
	text := strings.TrimSpace(raw.Text)
	if utf8.RuneCountInString(text) < minTextLength {
		return nil
	}

	name, date := reviewerAndDate(raw)
	if name == "" {
		name = placeholderReviewer
	}

	review := &types.Review{
		ID:           raw.ID,
		ProductID:    n.productID,
		ProductURL:   n.productURL,
		ReviewerName: name,
		Rating:       normalizeRating(raw),
		Text:         text,
		Date:         date,
		SKUInfo:      strings.TrimSpace(raw.SKUInfo),
		HelpfulCount: raw.HelpfulCount,
		Country:      strings.TrimSpace(raw.Country),
	}

	if review.HelpfulCount < 0 {
		review.HelpfulCount = 0
	}

	if review.ID == "" {
		// No stable source identifier; derive one from the content
		// fingerprint so the id stays stable within the run.
		review.ID = fingerprintID(text)
	}

	for _, img := range raw.Images {
		if normalized := NormalizeImageURL(img); normalized != "" {
			review.Images = append(review.Images, normalized)
		}
	}

	return review
}

// reviewerAndDate resolves the name/date pair, handling the source variant
// that packs both into one pipe-delimited string.
func reviewerAndDate(raw types.RawRecord) (string, string) {
	name := strings.TrimSpace(raw.Author)
	date := strings.TrimSpace(raw.Date)
	if name != "" || raw.AuthorAndDate == "" {
		return name, date
	}

	parts := strings.Split(raw.AuthorAndDate, "|")
	name = strings.TrimSpace(parts[0])
	if date == "" && len(parts) > 1 {
		date = strings.TrimSpace(parts[1])
	}
	return name, date
}

// normalizeRating reconciles the two rating encodings seen across sources.
// A discrete star count is already 0-5 and used verbatim. A percent-like
// score is rescaled by 20. A record with neither defaults to 5: the sources
// treat a missing rating as positive, and that behavior is preserved here
// rather than silently changed to a neutral default.
func normalizeRating(raw types.RawRecord) float64 {
	switch {
	case raw.StarCount != nil:
		return clampRating(float64(*raw.StarCount))
	case raw.ScorePercent != nil:
		scaled := math.Round(*raw.ScorePercent/20*100) / 100
		return clampRating(scaled)
	default:
		return 5
	}
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// NormalizeImageURL strips known CDN format-conversion and size suffixes and
// gives protocol-relative URLs an explicit scheme.
func NormalizeImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	u = formatSuffixRe.ReplaceAllString(u, "")
	u = sizeSuffixRe.ReplaceAllString(u, "")

	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}

// fingerprintID derives a run-stable identifier from the content fingerprint.
func fingerprintID(text string) string {
	h := fnv.New32a()
	h.Write([]byte(Fingerprint(text)))
	return fmt.Sprintf("fp-%08x", h.Sum32())
}
