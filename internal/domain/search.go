package domain

// SearchID is the caller-supplied identifier for one search lifecycle.
type SearchID string

// SearchStatus is the lifecycle status of a search record.
type SearchStatus string

const (
	SearchStatusPending SearchStatus = "pending"
	SearchStatusSuccess SearchStatus = "success"
	SearchStatusFailed  SearchStatus = "failed"
)

// Terminal reports whether no further status transition is expected.
func (s SearchStatus) Terminal() bool {
	return s == SearchStatusSuccess || s == SearchStatusFailed
}

// FailureStage tags where a failed search gave up.
type FailureStage string

const (
	FailureStageRateLimit   FailureStage = "rate_limit"
	FailureStageGeocoding   FailureStage = "geocoding"
	FailureStagePlaceSearch FailureStage = "place_search"
	FailureStageAIAnalysis  FailureStage = "ai_analysis"
	FailureStageUnknown     FailureStage = "unknown"
)

// ValidFailureStage reports whether s belongs to the closed stage set.
func ValidFailureStage(s FailureStage) bool {
	switch s {
	case FailureStageRateLimit, FailureStageGeocoding, FailureStagePlaceSearch,
		FailureStageAIAnalysis, FailureStageUnknown:
		return true
	}
	return false
}

// OriginPlace is a café the caller picked as a reference point for a search.
type OriginPlace struct {
	ID   string
	Name string
}

// SearchParams are the inputs that started a search.
type SearchParams struct {
	OriginPlaces []OriginPlace
	Destination  string
	Vibes        []string
	FreeText     string
}
