package quota

import "time"

// Quota accounting runs on calendar months in UTC. A new month means a new
// ledger row, so there is no scheduled reset job.

// Year and month for the current accounting period
func CurrentPeriod() (int, int) {
	return PeriodAt(time.Now().UTC())
}

func PeriodAt(t time.Time) (int, int) {
	t = t.UTC()
	return t.Year(), int(t.Month())
}

// First instant of the next calendar month in UTC
func NextReset() time.Time {
	return NextResetAt(time.Now().UTC())
}

func NextResetAt(t time.Time) time.Time {
	year, month := PeriodAt(t)
	if month == 12 {
		return time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}

// Date string for the next quota reset, e.g. "2026-10-01"
func NextResetDate() string {
	return NextReset().Format("2006-01-02")
}
