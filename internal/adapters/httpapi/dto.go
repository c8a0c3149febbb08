package httpapi

import (
	"encoding/json"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/social"
)

type originPlaceDTO struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type searchContextDTO struct {
	Destination    string   `json:"destination"`
	Vibes          []string `json:"vibes,omitempty"`
	FreeText       string   `json:"freeText,omitempty"`
	OriginPlaceIDs []string `json:"originPlaceIds,omitempty"`
}

func (d searchContextDTO) toDomain() domain.SearchContext {
	return domain.SearchContext{
		Destination:    d.Destination,
		Vibes:          d.Vibes,
		FreeText:       d.FreeText,
		OriginPlaceIDs: d.OriginPlaceIDs,
	}
}

type rateLimitResponse struct {
	Allowed         bool      `json:"allowed"`
	Remaining       int64     `json:"remaining"`
	ResetAt         time.Time `json:"resetAt"`
	CurrentCount    int64     `json:"currentCount"`
	BlockedBy       string    `json:"blockedBy,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

type initializeSearchRequest struct {
	SearchID     string           `json:"searchId"`
	OriginPlaces []originPlaceDTO `json:"originPlaces"`
	Destination  string           `json:"destination"`
	Vibes        []string         `json:"vibes"`
	FreeText     string           `json:"freeText"`
}

// searchReplaceRequest is the full-set POST update: absent fields clear.
type searchReplaceRequest struct {
	Results       json.RawMessage `json:"results"`
	AllResults    json.RawMessage `json:"allResults"`
	HasMorePages  bool            `json:"hasMorePages"`
	NextPageToken string          `json:"nextPageToken"`
}

// searchPatchRequest is the partial PATCH update: absent fields are left
// alone, explicit null clears.
type searchPatchRequest struct {
	Results       nullable.Nullable[json.RawMessage] `json:"results,omitempty"`
	AllResults    nullable.Nullable[json.RawMessage] `json:"allResults,omitempty"`
	HasMorePages  nullable.Nullable[bool]            `json:"hasMorePages,omitempty"`
	NextPageToken nullable.Nullable[string]          `json:"nextPageToken,omitempty"`
}

type failSearchRequest struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type succeedSearchRequest struct {
	Results       json.RawMessage `json:"results"`
	AllResults    json.RawMessage `json:"allResults"`
	HasMorePages  bool            `json:"hasMorePages"`
	NextPageToken string          `json:"nextPageToken"`
}

type searchStateResponse struct {
	SearchID     string           `json:"searchId"`
	OriginPlaces []originPlaceDTO `json:"originPlaces"`
	Destination  string           `json:"destination"`
	Vibes        []string         `json:"vibes,omitempty"`
	FreeText     string           `json:"freeText,omitempty"`

	Status         string `json:"status"`
	FailureStage   string `json:"failureStage,omitempty"`
	FailureMessage string `json:"failureMessage,omitempty"`

	Results       json.RawMessage `json:"results,omitempty"`
	AllResults    json.RawMessage `json:"allResults,omitempty"`
	HasMorePages  bool            `json:"hasMorePages"`
	NextPageToken string          `json:"nextPageToken,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSearchStateResponse(s searchrepo.Search) searchStateResponse {
	origins := make([]originPlaceDTO, 0, len(s.Params.OriginPlaces))
	for _, p := range s.Params.OriginPlaces {
		origins = append(origins, originPlaceDTO{ID: p.ID, Name: p.Name})
	}
	return searchStateResponse{
		SearchID:       string(s.ID),
		OriginPlaces:   origins,
		Destination:    s.Params.Destination,
		Vibes:          s.Params.Vibes,
		FreeText:       s.Params.FreeText,
		Status:         string(s.Status),
		FailureStage:   string(s.FailureStage),
		FailureMessage: s.FailureMessage,
		Results:        s.Results,
		AllResults:     s.AllResults,
		HasMorePages:   s.HasMorePages,
		NextPageToken:  s.NextPageToken,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

type interactionRequest struct {
	Action        string           `json:"action"`
	PlaceID       string           `json:"placeId"`
	PlaceName     string           `json:"placeName"`
	SearchContext searchContextDTO `json:"searchContext"`
}

type filterResponse struct {
	PlaceIDsToPenalize []string `json:"placeIdsToPenalize"`
}

type migrateResponse struct {
	MigratedCount   int      `json:"migratedCount"`
	AlreadyMigrated bool     `json:"alreadyMigrated"`
	Errors          []string `json:"errors"`
}

type imageDescriptionRequest struct {
	ImageRef string `json:"imageRef"`
}

type imageDescriptionResponse struct {
	Description string `json:"description"`
}

type mentionsRequest struct {
	CafeName string `json:"cafeName"`
	City     string `json:"city"`
}

type postDTO struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	Score      float64 `json:"score"`
	CreatedUTC float64 `json:"createdUtc"`
}

type mentionsResponse struct {
	Posts []postDTO `json:"posts"`
}

func toPostDTOs(posts []social.Post) []postDTO {
	out := make([]postDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, postDTO{
			Title:      p.Title,
			Author:     p.Author,
			Permalink:  p.Permalink,
			Score:      p.Score,
			CreatedUTC: p.CreatedUTC,
		})
	}
	return out
}

type matchReasonsRequest struct {
	CandidateNames []string `json:"candidateNames"`
	Destination    string   `json:"destination"`
}

type matchReasonsResponse struct {
	Reasons []string `json:"reasons"`
}

type successResponse struct {
	Success bool `json:"success"`
}
