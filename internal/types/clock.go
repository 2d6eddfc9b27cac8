package types

import "time"

// Clock is the source of "now" for every billing decision
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// DefaultBillingTimezone is the operational timezone billing days are computed in
const DefaultBillingTimezone = "America/Denver"

// LoadBillingLocation resolves the operational timezone, falling back to UTC for an empty name
func LoadBillingLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
