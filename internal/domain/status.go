package domain

import "time"

// Status is a user's derived relationship to a test.
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusSubmitted Status = "Submitted"
	StatusExpired   Status = "Expired"
)

// DeriveStatus computes the status from the clock, the test deadline and submission presence.
// Nothing stores a status; callers recompute it on every read.
func DeriveStatus(now time.Time, test Test, submitted bool) Status {
	if submitted {
		return StatusSubmitted
	}
	if test.ValidTill != nil && now.After(*test.ValidTill) {
		return StatusExpired
	}
	return StatusUpcoming
}

// TestWithStatus annotates a test for listing views.
type TestWithStatus struct {
	Test
	Status Status `json:"status"`
}
