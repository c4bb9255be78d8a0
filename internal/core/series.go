package core

import (
	"fmt"
	"sort"
)

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

type (
	Granularity string

	// SeriesPoint is one chart bucket: the running cumulative savings total
	// as of the last transaction falling inside the bucket.
	SeriesPoint struct {
		Label string
		Total Money
	}
)

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// BuildSeries produces the cumulative savings series for charting. Input
// order does not matter: transactions are sorted by creation time (ties
// broken by ID) before scanning, so repeated calls on the same unsorted
// input yield identical output. Allowances contribute their recorded
// percentage of the amount; transactions recorded without one fall back to
// fallbackPercent. Buckets appear in chronological first-occurrence order,
// each holding the running total as of its last transaction. Empty input
// produces an empty series.
func BuildSeries(transactions []Transaction, fallbackPercent int, g Granularity) []SeriesPoint {
	if len(transactions) == 0 {
		return nil
	}

	sorted := make([]Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var (
		running int64
		points  []SeriesPoint
		index   = map[string]int{}
	)
	for _, tx := range sorted {
		switch tx.Type {
		case Allowance:
			p := tx.SavingsPercent
			if p == 0 {
				p = fallbackPercent
			}
			running += SavedAmount(tx.Amount, p).Cents
		case Unlock:
			running -= tx.Amount.Cents
		default:
			continue
		}

		label := bucketLabel(tx, g)
		if i, ok := index[label]; ok {
			points[i].Total = Money{Cents: running}
			continue
		}
		index[label] = len(points)
		points = append(points, SeriesPoint{Label: label, Total: Money{Cents: running}})
	}
	return points
}

func bucketLabel(tx Transaction, g Granularity) string {
	t := tx.CreatedAt
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("Week %d, %d", week, year)
	case Monthly:
		return t.Format("January 2006")
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}
