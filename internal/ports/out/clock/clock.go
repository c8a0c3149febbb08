package clock

import "time"

// Clock provides time to the application. Window expiry and cache TTLs are
// computed against an injected Clock so tests can drive time manually.
type Clock interface {
	Now() time.Time
}
