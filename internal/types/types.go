package types

import "time"

// Review is the canonical output record produced by the harvesting engine.
// All providers normalize into this shape before anything is persisted.
type Review struct {
	ID           string   `json:"id"`
	ProductID    string   `json:"product_id"`
	ProductURL   string   `json:"product_url"`
	ReviewerName string   `json:"reviewer_name"`
	Rating       float64  `json:"rating"`
	Text         string   `json:"text"`
	Date         string   `json:"date,omitempty"`
	SKUInfo      string   `json:"sku_info,omitempty"`
	Images       []string `json:"images,omitempty"`
	HelpfulCount int      `json:"helpful_count"`
	Country      string   `json:"country,omitempty"`
}

// RawRecord is an unnormalized review-like item as produced directly by a
// data source. Sources disagree on field encodings: ratings arrive either as
// a discrete star count or a 0-100 percent score, and some sources pack the
// reviewer name and date into one pipe-delimited string.
type RawRecord struct {
	ID            string
	Author        string
	AuthorAndDate string // "name | date" variant, used when Author is empty
	StarCount     *int
	ScorePercent  *float64
	Text          string
	Date          string
	SKUInfo       string
	Images        []string
	HelpfulCount  int
	Country       string
}

// AdvanceOutcome reports what a provider's advance attempt changed.
type AdvanceOutcome int

const (
	// AdvanceUnchanged means the attempt produced no observable change.
	AdvanceUnchanged AdvanceOutcome = iota
	// AdvanceChanged means new content became (or may have become) available.
	AdvanceChanged
	// AdvanceExhausted means the source reported a definitive end signal.
	AdvanceExhausted
)

func (o AdvanceOutcome) String() string {
	switch o {
	case AdvanceChanged:
		return "changed"
	case AdvanceExhausted:
		return "exhausted"
	default:
		return "unchanged"
	}
}

// Termination reasons reported in HarvestSummary.
const (
	ReasonTargetReached = "target_reached"
	ReasonExhausted     = "exhausted"
	ReasonFatal         = "fatal"
)

// HarvestSummary is the run-end report handed back to the caller.
type HarvestSummary struct {
	SavedCount int    `json:"saved_count"`
	Reason     string `json:"reason"`
}

// Config holds the configuration for a harvest run
type Config struct {
	TargetCount    int
	BatchSize      int
	MaxRounds      int
	StallThreshold int
	SettleWait     time.Duration
	RequestDelay   time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Timeout        time.Duration
	PageSize       int
	Filter         string
	Sort           string
	UserAgent      string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TargetCount:    100,
		BatchSize:      10,
		MaxRounds:      100,
		StallThreshold: 3,
		SettleWait:     1500 * time.Millisecond,
		RequestDelay:   1 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   500 * time.Millisecond,
		Timeout:        30 * time.Second,
		PageSize:       10,
		Filter:         "all",
		Sort:           "recent",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
