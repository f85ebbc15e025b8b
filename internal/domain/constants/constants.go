package constants

import "time"

// Search constants
const (
	// SearchPageSize rows fetched per search; enough to classify
	// cardinality (>10) without a second round trip
	SearchPageSize = 15

	// ListReplyLimit max rows a channel list message may carry
	ListReplyLimit = 10

	// MenuModelMax max distinct models for the disambiguation menu
	MenuModelMax = 10

	// YearMin / YearMax bounds for a token to count as a model year
	YearMin = 1950
	YearMax = 2030

	// EngineDispMin / EngineDispMax plausible displacement range (liters)
	EngineDispMin = 0.5
	EngineDispMax = 16.0
)

// Session constants
const (
	// SessionTimeout inactivity window after which any non-bot mode
	// falls back to bot
	SessionTimeout = 60 * time.Minute
)

// Event intake constants
const (
	// EventStaleness provider-timestamped events older than this are
	// dropped (retry-storm protection)
	EventStaleness = 5 * time.Minute

	// DedupWindowSize most-recent provider ids remembered for duplicate
	// suppression
	DedupWindowSize = 1000
)
