package types

import (
	"time"
)

// BillingDays is the length of one interval in days as used for grace periods:
// days:1, weeks:7, months:31, years:365, multiplied by the interval length.
func BillingDays(interval Interval) int {
	return billingDayMultiplier[interval.Unit] * interval.Length
}

// AnchoredDate returns midnight of anchorDay in the given month, clamped to the
// month's last day so an anchor of 31 lands on Feb 28/29 instead of spilling into March.
func AnchoredDate(year int, month time.Month, anchorDay int, loc *time.Location) time.Time {
	// normalise month overflow first, time.Date handles month 13 as January next year
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := first.AddDate(0, 1, -1).Day()
	if anchorDay > lastDay {
		anchorDay = lastDay
	}
	if anchorDay < 1 {
		anchorDay = 1
	}
	return time.Date(first.Year(), first.Month(), anchorDay, 0, 0, 0, 0, loc)
}

// AddInterval advances t by one interval keeping anchorDay for calendar units.
func AddInterval(t time.Time, anchorDay int, interval Interval) time.Time {
	switch interval.Unit {
	case IntervalUnitDays:
		return t.AddDate(0, 0, interval.Length)
	case IntervalUnitWeeks:
		return t.AddDate(0, 0, 7*interval.Length)
	case IntervalUnitMonths:
		return AnchoredDate(t.Year(), t.Month()+time.Month(interval.Length), anchorDay, t.Location())
	case IntervalUnitYears:
		return AnchoredDate(t.Year()+interval.Length, t.Month(), anchorDay, t.Location())
	default:
		return t
	}
}

// NextBillingDate projects the upcoming billing date for a subscription anchored on anchorDay.
// This cycle's date is (now.year, now.month, anchorDay) in loc; when that instant is
// at-or-before now the date is advanced by one interval.
func NextBillingDate(anchorDay int, now time.Time, interval Interval, loc *time.Location) time.Time {
	local := now.In(loc)
	date := AnchoredDate(local.Year(), local.Month(), anchorDay, loc)
	if !date.After(local) {
		return AddInterval(date, anchorDay, interval)
	}
	return date
}

// GracePeriodEnd computes when a subscription cancelled at now stops being usable.
// The billing date of the current month is derived from the creation day; once it has
// passed, the grace period runs BillingDays(interval) days past it.
func GracePeriodEnd(createdAt, now time.Time, interval Interval, loc *time.Location) time.Time {
	local := now.In(loc)
	billingDate := AnchoredDate(local.Year(), local.Month(), createdAt.In(loc).Day(), loc)
	if !local.Before(billingDate) {
		return billingDate.AddDate(0, 0, BillingDays(interval))
	}
	return billingDate
}

// WholeMonthsBetween counts complete calendar months from start to end,
// e.g. Jan 15 -> Mar 14 is 1 and Jan 15 -> Mar 15 is 2.
func WholeMonthsBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	end = end.In(start.Location())
	months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	if AddClampedMonths(start, months).After(end) {
		months--
	}
	return months
}

// AddClampedMonths adds months to t keeping the day of month where possible,
// clamping to the last valid day otherwise (Jan 31 + 1 month = Feb 28).
func AddClampedMonths(t time.Time, months int) time.Time {
	anchored := AnchoredDate(t.Year(), t.Month()+time.Month(months), t.Day(), t.Location())
	h, m, s := t.Clock()
	return time.Date(anchored.Year(), anchored.Month(), anchored.Day(), h, m, s, t.Nanosecond(), t.Location())
}

// FormatGatewayDate renders a date as the gateway's ISO date (yyyy-mm-dd)
func FormatGatewayDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
