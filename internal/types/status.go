package types

// Status is a type for the status of a persisted record.
// It tracks the lifecycle of the row itself, not the billing lifecycle of a subscription.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)
