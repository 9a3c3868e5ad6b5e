package service

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rollover-fees/internal/types"
)

// RecentLimit caps the number of newest fees returned in a summary
const RecentLimit = 30

// Clock abstracts time for summaries
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var summaryWindows = []struct {
	window types.SummaryWindow
	span   time.Duration
}{
	{types.Window1Day, 24 * time.Hour},
	{types.Window7Day, 7 * 24 * time.Hour},
	{types.Window30Day, 30 * 24 * time.Hour},
	{types.Window365Day, 365 * 24 * time.Hour},
}

// Summarize totals rollover fees overall and per trailing window ending at now.
// assets, when non-empty, is a case-insensitive allow-list.
func Summarize(fees []types.RolloverFee, assets []string, now time.Time) *types.RolloverSummary {
	allowed := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if a = strings.ToUpper(strings.TrimSpace(a)); a != "" {
			allowed[a] = struct{}{}
		}
	}

	selected := make([]types.RolloverFee, 0, len(fees))
	for _, f := range fees {
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToUpper(f.Asset)]; !ok {
				continue
			}
		}
		selected = append(selected, f)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Time > selected[j].Time
	})

	summary := &types.RolloverSummary{
		Count:          len(selected),
		Total:          decimal.Zero,
		TotalsByWindow: make(map[types.SummaryWindow]decimal.Decimal, len(summaryWindows)),
	}
	for _, w := range summaryWindows {
		summary.TotalsByWindow[w.window] = decimal.Zero
	}

	nowSeconds := float64(now.UnixNano()) / float64(time.Second)
	for _, f := range selected {
		value := f.Value()
		summary.Total = summary.Total.Add(value)

		age := nowSeconds - f.Time
		for _, w := range summaryWindows {
			if age <= w.span.Seconds() {
				summary.TotalsByWindow[w.window] = summary.TotalsByWindow[w.window].Add(value)
			}
		}
	}

	if len(selected) > RecentLimit {
		selected = selected[:RecentLimit]
	}
	summary.Recent = selected

	return summary
}
