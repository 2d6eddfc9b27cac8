package subscription

import "time"

// State collapses the timestamp predicates into one value
type State string

const (
	StateTrialing    State = "trialing"
	StateActive      State = "active"
	StateGracePeriod State = "grace_period"
	StateCancelled   State = "cancelled"
)

// OnTrial holds while the trial window is open, whatever EndsAt says
func (s *Subscription) OnTrial(now time.Time) bool {
	return s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// OnGracePeriod holds between a cancellation request and EndsAt
func (s *Subscription) OnGracePeriod(now time.Time) bool {
	return s.EndsAt != nil && now.Before(*s.EndsAt)
}

func (s *Subscription) Active(now time.Time) bool {
	return s.EndsAt == nil || s.OnGracePeriod(now)
}

// Cancelled reports that cancellation was scheduled or completed.
// Use Valid to ask whether the service is still usable.
func (s *Subscription) Cancelled() bool {
	return s.EndsAt != nil
}

// Ended reports a cancellation whose grace period is over
func (s *Subscription) Ended(now time.Time) bool {
	return s.Cancelled() && !s.OnGracePeriod(now)
}

func (s *Subscription) Valid(now time.Time) bool {
	return s.Active(now) || s.OnTrial(now) || s.OnGracePeriod(now)
}

// State returns the dominant state at now: cancelled, then grace period, then trialing, then active.
func (s *Subscription) State(now time.Time) State {
	switch {
	case s.Ended(now):
		return StateCancelled
	case s.OnGracePeriod(now):
		return StateGracePeriod
	case s.OnTrial(now):
		return StateTrialing
	default:
		return StateActive
	}
}

// EndAt schedules the end of the subscription. An end that is already in effect
// is kept so repeated calls do not move it.
func (s *Subscription) EndAt(endsAt, now time.Time) {
	if s.Ended(now) {
		return
	}
	endsAt = endsAt.UTC()
	s.EndsAt = &endsAt
}

// MarkEnded ends the subscription at now. The first recorded instant wins and a
// running trial is closed at the same instant.
func (s *Subscription) MarkEnded(now time.Time) {
	s.EndAt(now, now)
	if s.OnTrial(now) {
		t := now.UTC()
		s.TrialEndsAt = &t
	}
}
