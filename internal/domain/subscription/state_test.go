package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StateSuite struct {
	suite.Suite
	now time.Time
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func (s *StateSuite) at(d time.Duration) *time.Time {
	t := s.now.Add(d)
	return &t
}

func (s *StateSuite) assertValidIdentity(sub *Subscription, now time.Time) {
	s.Equal(sub.Active(now) || sub.OnTrial(now) || sub.OnGracePeriod(now), sub.Valid(now))
}

func (s *StateSuite) TestDerivedStates() {
	day := 24 * time.Hour
	tests := []struct {
		name        string
		trialEndsAt *time.Time
		endsAt      *time.Time
		state       State
		valid       bool
		cancelled   bool
	}{
		{name: "fresh", state: StateActive, valid: true},
		{name: "trialing", trialEndsAt: s.at(3 * day), state: StateTrialing, valid: true},
		{name: "trial over", trialEndsAt: s.at(-3 * day), state: StateActive, valid: true},
		{name: "grace period", endsAt: s.at(5 * day), state: StateGracePeriod, valid: true, cancelled: true},
		{name: "ended", endsAt: s.at(-time.Second), state: StateCancelled, valid: false, cancelled: true},
		{name: "ends exactly now", endsAt: s.at(0), state: StateCancelled, valid: false, cancelled: true},
		{name: "trial outlives ended subscription", trialEndsAt: s.at(day), endsAt: s.at(-day), state: StateCancelled, valid: true, cancelled: true},
		{name: "trial with scheduled end", trialEndsAt: s.at(day), endsAt: s.at(day), state: StateGracePeriod, valid: true, cancelled: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			sub := &Subscription{TrialEndsAt: tt.trialEndsAt, EndsAt: tt.endsAt}
			s.Equal(tt.state, sub.State(s.now))
			s.Equal(tt.valid, sub.Valid(s.now))
			s.Equal(tt.cancelled, sub.Cancelled())
			s.assertValidIdentity(sub, s.now)
		})
	}
}

func (s *StateSuite) TestMarkEndedKeepsFirstInstant() {
	sub := &Subscription{}
	sub.MarkEnded(s.now)
	s.Require().NotNil(sub.EndsAt)
	s.Equal(s.now, *sub.EndsAt)

	later := s.now.Add(time.Hour)
	sub.MarkEnded(later)
	s.Equal(s.now, *sub.EndsAt)
	s.False(sub.Valid(later))
	s.assertValidIdentity(sub, later)
}

func (s *StateSuite) TestMarkEndedCutsGracePeriodShort() {
	sub := &Subscription{EndsAt: s.at(10 * 24 * time.Hour)}
	s.True(sub.OnGracePeriod(s.now))

	sub.MarkEnded(s.now)
	s.Equal(s.now, *sub.EndsAt)
	s.True(sub.Cancelled())
	s.False(sub.Valid(s.now))
	s.Equal(StateCancelled, sub.State(s.now))
}

func (s *StateSuite) TestMarkEndedClosesTrial() {
	sub := &Subscription{TrialEndsAt: s.at(7 * 24 * time.Hour)}
	sub.MarkEnded(s.now)

	s.Equal(s.now, *sub.TrialEndsAt)
	s.False(sub.OnTrial(s.now))
	s.False(sub.Valid(s.now))
	s.assertValidIdentity(sub, s.now)
}

func (s *StateSuite) TestEndAtDoesNotReopenEnded() {
	sub := &Subscription{EndsAt: s.at(-time.Hour)}
	sub.EndAt(s.now.Add(30*24*time.Hour), s.now)
	s.Equal(s.now.Add(-time.Hour), *sub.EndsAt)
}

func (s *StateSuite) TestMostRecent() {
	t1 := s.now.Add(-time.Hour)
	t2 := s.now

	older := &Subscription{ID: "subs_01A", Name: DefaultName}
	older.CreatedAt = t1
	newerSub := &Subscription{ID: "subs_01B", Name: DefaultName}
	newerSub.CreatedAt = t2

	s.Equal(newerSub, MostRecent([]*Subscription{older, newerSub}))
	s.Equal(newerSub, MostRecent([]*Subscription{newerSub, older}))
	s.Nil(MostRecent(nil))

	tieA := &Subscription{ID: "subs_01C"}
	tieA.CreatedAt = t2
	tieB := &Subscription{ID: "subs_01D"}
	tieB.CreatedAt = t2
	s.Equal(tieB, MostRecent([]*Subscription{tieB, tieA}))
}
