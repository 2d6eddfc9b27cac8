package types

import (
	"fmt"
	"strings"
)

// IntervalUnit is the unit of a plan's billing interval
type IntervalUnit string

const (
	IntervalUnitDays   IntervalUnit = "days"
	IntervalUnitWeeks  IntervalUnit = "weeks"
	IntervalUnitMonths IntervalUnit = "months"
	IntervalUnitYears  IntervalUnit = "years"
)

// billingDayMultiplier is the number of days one unit counts for when a grace
// period is computed. Months are deliberately the longest calendar month.
var billingDayMultiplier = map[IntervalUnit]int{
	IntervalUnitDays:   1,
	IntervalUnitWeeks:  7,
	IntervalUnitMonths: 31,
	IntervalUnitYears:  365,
}

func (u IntervalUnit) Validate() error {
	if _, ok := billingDayMultiplier[u]; !ok {
		return fmt.Errorf("invalid interval unit %q, expected one of days, weeks, months, years", string(u))
	}
	return nil
}

// ParseIntervalUnit accepts the unit in any case
func ParseIntervalUnit(s string) (IntervalUnit, error) {
	u := IntervalUnit(strings.ToLower(strings.TrimSpace(s)))
	return u, u.Validate()
}

// Interval is a billing interval, e.g. every 2 weeks
type Interval struct {
	Unit   IntervalUnit `json:"unit" mapstructure:"unit"`
	Length int          `json:"length" mapstructure:"length"`
}

func (i Interval) Validate() error {
	if err := i.Unit.Validate(); err != nil {
		return err
	}
	if i.Length <= 0 {
		return fmt.Errorf("interval length must be a positive integer, got %d", i.Length)
	}
	return nil
}

func (i Interval) String() string {
	return fmt.Sprintf("%d %s", i.Length, i.Unit)
}

// GatewaySchedule converts the interval into the only two units recurring billing
// accepts on the gateway side, days and months.
func (i Interval) GatewaySchedule() (unit string, length int) {
	switch i.Unit {
	case IntervalUnitWeeks:
		return string(IntervalUnitDays), i.Length * 7
	case IntervalUnitYears:
		return string(IntervalUnitMonths), i.Length * 12
	default:
		return string(i.Unit), i.Length
	}
}
