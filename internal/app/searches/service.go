package searches

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
)

// Service tracks the lifecycle of a client-initiated search: created pending,
// completed exactly once as success or failed, and readable in between so a
// client can resume a long-running multi-step search.
type Service struct {
	searches searchrepo.Repository
}

func NewService(searchesRepo searchrepo.Repository) *Service {
	return &Service{searches: searchesRepo}
}

func (s *Service) Initialize(ctx context.Context, identity domain.Identity, in InitializeInput) (searchrepo.Search, error) {
	details := map[string]any{}
	if strings.TrimSpace(string(in.SearchID)) == "" {
		details["searchId"] = "must be non-empty"
	}
	if strings.TrimSpace(in.Params.Destination) == "" {
		details["destination"] = "must be non-empty"
	}
	if len(in.Params.OriginPlaces) == 0 {
		details["originPlaces"] = "at least one origin place is required"
	}
	for _, p := range in.Params.OriginPlaces {
		if strings.TrimSpace(p.ID) == "" {
			details["originPlaces"] = "every origin place needs an id"
			break
		}
	}
	if len(details) > 0 {
		return searchrepo.Search{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid search parameters", Details: details}
	}

	now := time.Now().UTC()
	rec := searchrepo.Search{
		Identity:  identity,
		ID:        in.SearchID,
		Params:    in.Params,
		Status:    domain.SearchStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.searches.Create(ctx, rec); err != nil {
		if errors.Is(err, searchrepo.ErrAlreadyExists) {
			return searchrepo.Search{}, &Error{Status: 409, Code: "SEARCH_ALREADY_EXISTS", Message: "a search with this id already exists"}
		}
		return searchrepo.Search{}, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, identity domain.Identity, id domain.SearchID) (searchrepo.Search, error) {
	rec, err := s.searches.Get(ctx, identity, id)
	if err != nil {
		if errors.Is(err, searchrepo.ErrNotFound) {
			return searchrepo.Search{}, &Error{Status: 404, Code: "SEARCH_NOT_FOUND", Message: "search not found"}
		}
		return searchrepo.Search{}, err
	}
	return rec, nil
}

func (s *Service) MarkFailed(ctx context.Context, identity domain.Identity, id domain.SearchID, in FailInput) (searchrepo.Search, error) {
	if !domain.ValidFailureStage(in.Stage) {
		return searchrepo.Search{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid failure stage", Details: map[string]any{"stage": "must be one of rate_limit, geocoding, place_search, ai_analysis, unknown"}}
	}

	rec, err := s.Get(ctx, identity, id)
	if err != nil {
		return searchrepo.Search{}, err
	}
	if rec.Status.Terminal() {
		return searchrepo.Search{}, alreadyTerminal(rec.Status)
	}

	rec.Status = domain.SearchStatusFailed
	rec.FailureStage = in.Stage
	rec.FailureMessage = in.Message
	rec.UpdatedAt = time.Now().UTC()
	if err := s.searches.Save(ctx, rec); err != nil {
		return searchrepo.Search{}, err
	}
	return rec, nil
}

func (s *Service) MarkSuccessful(ctx context.Context, identity domain.Identity, id domain.SearchID, in SuccessInput) (searchrepo.Search, error) {
	rec, err := s.Get(ctx, identity, id)
	if err != nil {
		return searchrepo.Search{}, err
	}
	if rec.Status.Terminal() {
		return searchrepo.Search{}, alreadyTerminal(rec.Status)
	}

	rec.Status = domain.SearchStatusSuccess
	rec.Results = in.Results
	rec.AllResults = in.AllResults
	rec.HasMorePages = in.HasMorePages
	rec.NextPageToken = in.NextPageToken
	rec.UpdatedAt = time.Now().UTC()
	if err := s.searches.Save(ctx, rec); err != nil {
		return searchrepo.Search{}, err
	}
	return rec, nil
}

// Update applies a partial continuation update. It is allowed while pending
// and after success (paging continues past the first result batch), but a
// failed search is done.
func (s *Service) Update(ctx context.Context, identity domain.Identity, id domain.SearchID, in UpdateInput) (searchrepo.Search, error) {
	rec, err := s.Get(ctx, identity, id)
	if err != nil {
		return searchrepo.Search{}, err
	}
	if rec.Status == domain.SearchStatusFailed {
		return searchrepo.Search{}, alreadyTerminal(rec.Status)
	}

	if in.Results.IsSpecified() {
		if in.Results.IsNull() {
			rec.Results = nil
		} else {
			rec.Results = in.Results.Value()
		}
	}
	if in.AllResults.IsSpecified() {
		if in.AllResults.IsNull() {
			rec.AllResults = nil
		} else {
			rec.AllResults = in.AllResults.Value()
		}
	}
	if in.HasMorePages.IsSpecified() {
		if in.HasMorePages.IsNull() {
			rec.HasMorePages = false
		} else {
			rec.HasMorePages = in.HasMorePages.Value()
		}
	}
	if in.NextPageToken.IsSpecified() {
		if in.NextPageToken.IsNull() {
			rec.NextPageToken = ""
		} else {
			rec.NextPageToken = in.NextPageToken.Value()
		}
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := s.searches.Save(ctx, rec); err != nil {
		return searchrepo.Search{}, err
	}
	return rec, nil
}

func alreadyTerminal(status domain.SearchStatus) *Error {
	return &Error{
		Status:  409,
		Code:    "SEARCH_ALREADY_TERMINAL",
		Message: "search already reached a terminal status",
		Details: map[string]any{"status": string(status)},
	}
}
