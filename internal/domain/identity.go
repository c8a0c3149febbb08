package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identity is the resolved caller key used for rate limiting and interaction
// tracking: "user:<sub>" for an authenticated caller, "ip:<hash>" for an
// anonymous one.
type Identity string

const (
	userIdentityPrefix = "user:"
	ipIdentityPrefix   = "ip:"

	// UnknownAddress is the sentinel used when no client address can be
	// determined from the request.
	UnknownAddress = "unknown"
)

// UserIdentity builds the identity for an authenticated subject (JWT `sub`).
func UserIdentity(subject string) Identity {
	return Identity(userIdentityPrefix + subject)
}

// AnonymousIdentity derives the address-based pseudo-identity for a raw client
// address. Only the salted hash appears in the identity; the raw address is
// never persisted under it.
func AnonymousIdentity(address, salt string) Identity {
	return Identity(ipIdentityPrefix + HashAddress(address, salt))
}

func (i Identity) IsAuthenticated() bool {
	return strings.HasPrefix(string(i), userIdentityPrefix)
}

// HashAddress returns a deterministic, one-way, salted hash of a client
// address.
func HashAddress(address, salt string) string {
	sum := sha256.Sum256([]byte(salt + "|" + address))
	return hex.EncodeToString(sum[:])
}

// AddressCounterKey is the raw-address rate-limit key. It is deliberately a
// separate dimension from the hashed identity so a caller bouncing between
// derived identities (header differences, sign-out/sign-in) stays bounded by
// the address itself.
func AddressCounterKey(address string) string {
	return "ip-" + address
}
