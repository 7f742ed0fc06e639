package domain

import "time"

// Author represents a tracked or encountered social account.
// Corresponds to the authors table in PostgreSQL. Counter fields are
// refreshed on every sighting; rows are never deleted.
type Author struct {
	AccountID      string    // provider account identifier, unique
	CreatedAt      time.Time // account creation time reported by the provider
	DisplayName    string
	Verified       bool
	FollowerCount  int
	FollowingCount int
	PostCount      int
	ListedCount    int
}
