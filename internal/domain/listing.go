package domain

import "github.com/ethereum/go-ethereum/common"

// ListingState is the resolver's decision for a token.
type ListingState int

const (
	// ListingUnknown means no decision has been made yet.
	ListingUnknown ListingState = iota
	// ListingListed means a pool or pair against the wrapped native asset exists.
	ListingListed
	// ListingNotListed means no venue was found at resolution time.
	ListingNotListed
)

// String returns the state name.
func (s ListingState) String() string {
	switch s {
	case ListingListed:
		return "LISTED"
	case ListingNotListed:
		return "NOT_LISTED"
	default:
		return "UNKNOWN"
	}
}

// ListingStatus is a cached listing decision for a token.
type ListingStatus struct {
	Token    common.Address
	State    ListingState
	Venue    string // "v3:<fee>" or "v2" when listed, empty otherwise
	CachedAt int64  // Unix timestamp in milliseconds
}
