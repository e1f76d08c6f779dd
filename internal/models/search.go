package models

// SearchResultType names the kind of record a search hit points to
type SearchResultType string

const (
	SearchSermon  SearchResultType = "sermon"
	SearchEvent   SearchResultType = "event"
	SearchMeeting SearchResultType = "meeting"
)

// SearchResult is one ranked hit
type SearchResult struct {
	ID          string           `json:"id"`
	Type        SearchResultType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Score       int              `json:"score"`
}

// Verse is a scripture passage with its reference
type Verse struct {
	Verse     string `json:"verse"`
	Reference string `json:"reference"`
}
