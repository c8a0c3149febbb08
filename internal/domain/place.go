package domain

import (
	"sort"
	"strings"
)

// PlaceID is the mapping provider's identifier for a café.
type PlaceID string

// SearchContext is the set of inputs that produced a place view. Interactions
// are keyed by its fingerprint so a later search with the same inputs can
// deprioritize places the caller already saw but did not save.
type SearchContext struct {
	Destination    string
	Vibes          []string
	FreeText       string
	OriginPlaceIDs []string
}

// Fingerprint returns a stable key for the context. Vibes and origin ids are
// order-insensitive; text fields are normalized.
func (c SearchContext) Fingerprint() string {
	vibes := make([]string, 0, len(c.Vibes))
	for _, v := range c.Vibes {
		vibes = append(vibes, NormalizeToken(v))
	}
	sort.Strings(vibes)

	origins := append([]string(nil), c.OriginPlaceIDs...)
	sort.Strings(origins)

	return strings.Join([]string{
		NormalizeToken(c.Destination),
		strings.Join(vibes, ","),
		NormalizeToken(c.FreeText),
		strings.Join(origins, ","),
	}, "|")
}
