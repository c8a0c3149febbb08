package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog"

	"github.com/cafescout/cafe-scout-api/internal/app/enrich"
	"github.com/cafescout/cafe-scout-api/internal/app/interactions"
	"github.com/cafescout/cafe-scout-api/internal/app/ratelimit"
	"github.com/cafescout/cafe-scout-api/internal/app/searches"
	"github.com/cafescout/cafe-scout-api/internal/domain"
)

// Server is the HTTP adapter. Each handler resolves the caller from context
// (the identity middleware ran first), delegates to an app service and maps
// the outcome onto the wire.
type Server struct {
	RateLimit    *ratelimit.Service
	Searches     *searches.Service
	Interactions *interactions.Service
	Enrich       *enrich.Service

	IPHashSalt string
	Log        zerolog.Logger
}

func NewServer(rl *ratelimit.Service, searchesSvc *searches.Service, interactionsSvc *interactions.Service, enrichSvc *enrich.Service, ipHashSalt string, log zerolog.Logger) *Server {
	return &Server{
		RateLimit:    rl,
		Searches:     searchesSvc,
		Interactions: interactionsSvc,
		Enrich:       enrichSvc,
		IPHashSalt:   ipHashSalt,
		Log:          log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON rejects malformed bodies with the validation status. An empty
// body decodes as the zero request so handlers can report missing fields
// precisely.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return false
	}
	return true
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) (domain.Identity, string, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "identity missing from context", nil)
		return "", "", false
	}
	address, ok := ClientAddressFromContext(r.Context())
	if !ok {
		address = domain.UnknownAddress
	}
	return identity, address, true
}

func (s *Server) rateLimitCheck(w http.ResponseWriter, r *http.Request) {
	identity, address, ok := s.caller(w, r)
	if !ok {
		return
	}

	d := s.RateLimit.CheckAndIncrement(r.Context(), identity, address)
	resp := rateLimitResponse{
		Allowed:         d.Allowed,
		Remaining:       d.Remaining,
		ResetAt:         d.ResetAt,
		CurrentCount:    d.CurrentCount,
		BlockedBy:       d.BlockedBy,
		IsAuthenticated: identity.IsAuthenticated(),
	}
	status := http.StatusOK
	if !d.Allowed {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, resp)
}

func (s *Server) initializeSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req initializeSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	origins := make([]domain.OriginPlace, 0, len(req.OriginPlaces))
	for _, p := range req.OriginPlaces {
		origins = append(origins, domain.OriginPlace{ID: p.ID, Name: p.Name})
	}
	rec, err := s.Searches.Initialize(r.Context(), identity, searches.InitializeInput{
		SearchID: domain.SearchID(req.SearchID),
		Params: domain.SearchParams{
			OriginPlaces: origins,
			Destination:  req.Destination,
			Vibes:        req.Vibes,
			FreeText:     req.FreeText,
		},
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSearchStateResponse(rec))
}

func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	rec, err := s.Searches.Get(r.Context(), identity, domain.SearchID(chi.URLParam(r, "searchId")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchStateResponse(rec))
}

// replaceSearch is the full-set update: every continuation field takes the
// request's value, absent fields included.
func (s *Server) replaceSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req searchReplaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.Searches.Update(r.Context(), identity, domain.SearchID(chi.URLParam(r, "searchId")), searches.UpdateInput{
		Results:       searches.Some(req.Results),
		AllResults:    searches.Some(req.AllResults),
		HasMorePages:  searches.Some(req.HasMorePages),
		NextPageToken: searches.Some(req.NextPageToken),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchStateResponse(rec))
}

func (s *Server) patchSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req searchPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.Searches.Update(r.Context(), identity, domain.SearchID(chi.URLParam(r, "searchId")), searches.UpdateInput{
		Results:       optionalFrom(req.Results),
		AllResults:    optionalFrom(req.AllResults),
		HasMorePages:  optionalFrom(req.HasMorePages),
		NextPageToken: optionalFrom(req.NextPageToken),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchStateResponse(rec))
}

// optionalFrom converts wire-level tri-state nullability to the app layer's.
func optionalFrom[T any](n nullable.Nullable[T]) searches.Optional[T] {
	if !n.IsSpecified() {
		return searches.Unspecified[T]()
	}
	if n.IsNull() {
		return searches.Null[T]()
	}
	return searches.Some(n.MustGet())
}

func (s *Server) failSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req failSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.Searches.MarkFailed(r.Context(), identity, domain.SearchID(chi.URLParam(r, "searchId")), searches.FailInput{
		Stage:   domain.FailureStage(req.Stage),
		Message: req.Message,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchStateResponse(rec))
}

func (s *Server) succeedSearch(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req succeedSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.Searches.MarkSuccessful(r.Context(), identity, domain.SearchID(chi.URLParam(r, "searchId")), searches.SuccessInput{
		Results:       req.Results,
		AllResults:    req.AllResults,
		HasMorePages:  req.HasMorePages,
		NextPageToken: req.NextPageToken,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchStateResponse(rec))
}

func (s *Server) recordInteraction(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req interactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.Interactions.Record(r.Context(), identity, interactions.RecordInput{
		Action:    interactions.Action(req.Action),
		PlaceID:   domain.PlaceID(req.PlaceID),
		PlaceName: req.PlaceName,
		Context:   req.SearchContext.toDomain(),
	}); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) filterInteractions(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := s.caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	sc := domain.SearchContext{
		Destination:    q.Get("destination"),
		Vibes:          q["vibes"],
		FreeText:       q.Get("freeText"),
		OriginPlaceIDs: q["originPlaceIds"],
	}
	ids, err := s.Interactions.SeenButUnsaved(r.Context(), identity, sc)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	writeJSON(w, http.StatusOK, filterResponse{PlaceIDsToPenalize: out})
}

func (s *Server) migrateAnonymousData(w http.ResponseWriter, r *http.Request) {
	identity, address, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !identity.IsAuthenticated() {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "migration requires an authenticated caller", nil)
		return
	}

	anon := domain.AnonymousIdentity(address, s.IPHashSalt)
	res, err := s.Interactions.Migrate(r.Context(), anon, identity, address)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	writeJSON(w, http.StatusOK, migrateResponse{
		MigratedCount:   res.MigratedCount,
		AlreadyMigrated: res.AlreadyMigrated,
		Errors:          res.Errors,
	})
}

func (s *Server) imageDescription(w http.ResponseWriter, r *http.Request) {
	var req imageDescriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	desc, err := s.Enrich.DescribeImage(r.Context(), req.ImageRef)
	if err != nil {
		var ee *enrich.Error
		if errors.As(err, &ee) {
			writeAppError(w, r, err)
			return
		}
		// Best-effort enrichment: the page renders without a description.
		s.Log.Warn().Err(err).Msg("image description degraded to empty")
		writeJSON(w, http.StatusOK, imageDescriptionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, imageDescriptionResponse{Description: desc})
}

func (s *Server) socialMentions(w http.ResponseWriter, r *http.Request) {
	var req mentionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	posts, err := s.Enrich.Mentions(r.Context(), req.CafeName, req.City)
	if err != nil {
		var ee *enrich.Error
		if errors.As(err, &ee) {
			writeAppError(w, r, err)
			return
		}
		s.Log.Warn().Err(err).Msg("social mentions degraded to empty")
		writeJSON(w, http.StatusOK, mentionsResponse{Posts: []postDTO{}})
		return
	}
	writeJSON(w, http.StatusOK, mentionsResponse{Posts: toPostDTOs(posts)})
}

func (s *Server) matchReasons(w http.ResponseWriter, r *http.Request) {
	var req matchReasonsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reasons, err := s.Enrich.MatchReasons(r.Context(), req.CandidateNames, req.Destination)
	if err != nil {
		var ee *enrich.Error
		if errors.As(err, &ee) {
			writeAppError(w, r, err)
			return
		}
		s.Log.Warn().Err(err).Msg("match reasons degraded to empty")
		writeJSON(w, http.StatusOK, matchReasonsResponse{Reasons: []string{}})
		return
	}
	if reasons == nil {
		reasons = []string{}
	}
	writeJSON(w, http.StatusOK, matchReasonsResponse{Reasons: reasons})
}
