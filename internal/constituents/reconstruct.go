// Package constituents rebuilds historical index membership from a
// present-day constituents snapshot and a reconstitution change log.
//
// The rebuild walks months in strictly descending order. The membership for
// month M is derived from month M+1 by undoing every addition logged in M
// and re-applying every removal logged in M (with the removal-time company
// name). Months with no logged changes carry the set forward unchanged.
// Only full rebuilds are supported; there is no incremental update.
package constituents

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"idxlens/pkg/contracts/domain"
)

// ReconstructOptions bounds the rebuild. Dates are truncated to month
// granularity; End defaults to the current month when zero.
type ReconstructOptions struct {
	Start time.Time
	End   time.Time
	Now   func() time.Time // test hook; nil means time.Now
}

// monthKey identifies one calendar month
type monthKey struct {
	Year  int
	Month time.Month
}

func keyOf(t time.Time) monthKey {
	return monthKey{Year: t.Year(), Month: t.Month()}
}

func (k monthKey) date() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (k monthKey) prev() monthKey {
	return keyOf(k.date().AddDate(0, -1, 0))
}

// Reconstruct produces one membership snapshot per month from opts.End back
// to opts.Start inclusive, ordered months descending and symbols ascending
// within each month. The same inputs always yield the same output.
//
// Change rows are taken as recorded: duplicates are not de-duplicated and
// malformed rows are not validated. Within a month, removals of added
// symbols are applied before add-backs, so the last write wins. Rows with an
// empty removed symbol contribute nothing to the add-back step.
func Reconstruct(snapshot []domain.Constituent, log []domain.ChangeRecord, opts ReconstructOptions) ([]domain.MembershipRecord, error) {
	if opts.Start.IsZero() {
		return nil, fmt.Errorf("reconstruct: start month is required")
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	end := opts.End
	if end.IsZero() {
		end = now()
	}

	start := keyOf(opts.Start)
	if start.date().After(keyOf(end).date()) {
		return nil, fmt.Errorf("reconstruct: start month %s is after end month %s",
			start.date().Format("2006-01"), keyOf(end).date().Format("2006-01"))
	}

	changesByMonth := make(map[monthKey][]domain.ChangeRecord, len(log))
	for _, c := range log {
		changesByMonth[keyOf(c.EffectiveDate)] = append(changesByMonth[keyOf(c.EffectiveDate)], c)
	}

	// Current membership, mutated as the walk moves backward.
	members := make(map[string]string, len(snapshot))
	for _, c := range snapshot {
		members[c.Symbol] = c.Name
	}

	var records []domain.MembershipRecord
	emit := func(month monthKey) {
		symbols := make([]string, 0, len(members))
		for sym := range members {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		for _, sym := range symbols {
			records = append(records, domain.MembershipRecord{
				EffectiveDate: month.date(),
				Symbol:        sym,
				Name:          members[sym],
			})
		}
	}

	// The end month is the snapshot as given; every earlier month undoes
	// that month's own logged changes before being emitted.
	month := keyOf(end)
	emit(month)

	for month != start {
		month = month.prev()

		for _, c := range changesByMonth[month] {
			if c.AddedSymbol != "" {
				delete(members, c.AddedSymbol)
			}
			if c.RemovedSymbol != "" {
				members[c.RemovedSymbol] = c.RemovedName
			}
		}

		emit(month)
	}

	slog.Debug("membership reconstruction complete",
		slog.String("start", start.date().Format("2006-01")),
		slog.String("end", keyOf(end).date().Format("2006-01")),
		slog.Int("records", len(records)))

	return records, nil
}

// Turnover derives per-month membership churn from an ordered rebuild
// result: for each month, how many symbols joined and left relative to the
// chronologically previous month.
func Turnover(records []domain.MembershipRecord) []domain.TurnoverPoint {
	byMonth := make(map[time.Time]map[string]struct{})
	var months []time.Time
	for _, r := range records {
		m := r.EffectiveDate
		if byMonth[m] == nil {
			byMonth[m] = make(map[string]struct{})
			months = append(months, m)
		}
		byMonth[m][r.Symbol] = struct{}{}
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	var points []domain.TurnoverPoint
	for i := 1; i < len(months); i++ {
		prev, cur := byMonth[months[i-1]], byMonth[months[i]]

		var joined, left int
		for sym := range cur {
			if _, ok := prev[sym]; !ok {
				joined++
			}
		}
		for sym := range prev {
			if _, ok := cur[sym]; !ok {
				left++
			}
		}

		points = append(points, domain.TurnoverPoint{Month: months[i], Joined: joined, Left: left})
	}

	return points
}

// MembershipAt extracts the snapshot for a single month from a rebuild
// result. The month is matched at month granularity.
func MembershipAt(records []domain.MembershipRecord, month time.Time) []domain.MembershipRecord {
	want := keyOf(month)

	var out []domain.MembershipRecord
	for _, r := range records {
		if keyOf(r.EffectiveDate) == want {
			out = append(out, r)
		}
	}
	return out
}
