package entity

// ParsedQuery is the structured filter request produced from one search
// text. Ephemeral; never persisted.
type ParsedQuery struct {
	// YearFilter is the first 4-digit token in [1950, 2030], if any.
	YearFilter *int

	// EngineFilter is the first displacement-looking token, normalized to
	// one fractional digit ("1.6", "2.0"), if any.
	EngineFilter string

	// TextTokens in input order, duplicates allowed.
	TextTokens []string
}

// IsEmpty reports whether the query carries nothing to filter on.
func (q ParsedQuery) IsEmpty() bool {
	return q.YearFilter == nil && q.EngineFilter == "" && len(q.TextTokens) == 0
}

// ColumnMatch is one column-level predicate: a case-insensitive POSIX
// regex body to match against Column. The pattern deliberately carries no
// boundary anchors; each store adds its own word-boundary syntax when
// WholeWord is set (Postgres \y, Go regexp \b).
type ColumnMatch struct {
	Column    string
	Pattern   string
	WholeWord bool
}

// VehicleFilter is the compiled catalog query: AND across filter kinds,
// AND across token groups, OR within a group (one group per text token,
// spanning the searchable columns).
type VehicleFilter struct {
	Year        *int
	Engine      string
	TokenGroups [][]ColumnMatch
	Limit       int
}
