package analysis

import (
	"sort"
	"time"

	"github.com/wonny/vegaedge/internal/contracts"
)

// DaysBetween counts calendar days from today to expiry using each value's own date
func DaysBetween(today, expiry time.Time) int {
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// SelectExpiries returns, in ascending date order, the first maxCount listed
// expiries whose days-to-expiry lies in [minDTE, maxDTE]
func SelectExpiries(listed []time.Time, today time.Time, minDTE, maxDTE, maxCount int) []contracts.Expiry {
	dates := make([]time.Time, len(listed))
	copy(dates, listed)
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	selected := make([]contracts.Expiry, 0, maxCount)
	seen := make(map[string]bool)
	for _, d := range dates {
		if maxCount > 0 && len(selected) == maxCount {
			break
		}
		label := d.Format(contracts.DateLayout)
		if seen[label] {
			continue
		}
		seen[label] = true

		days := DaysBetween(today, d)
		if days < minDTE || days > maxDTE {
			continue
		}
		selected = append(selected, contracts.Expiry{Date: d, DaysToExp: days})
	}
	return selected
}
