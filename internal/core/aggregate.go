package core

import (
	"math"
	"sort"
	"time"
)

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// DefaultForecastFraction is the share of total income projected as next
// month's spend. It is a deliberately simple heuristic, kept configurable on
// the Engine.
const DefaultForecastFraction = 0.20

// DefaultPalette cycles through chart slice colors by descending-amount rank.
var DefaultPalette = []string{
	"#4F46E5", "#06B6D4", "#10B981", "#F59E0B",
	"#EF4444", "#8B5CF6", "#EC4899", "#14B8A6",
}

type (
	Trend string

	// KPI is a single labeled summary metric. Never persisted; recomputed
	// from the transaction snapshot on every read.
	KPI struct {
		Label  string  `json:"label"`
		Value  Money   `json:"value"`
		Change float64 `json:"change"`
		Trend  Trend   `json:"trend"`
	}

	// ChartDataPoint is one bucket of a growth series.
	ChartDataPoint struct {
		Date    string `json:"date"`
		Income  Money  `json:"income"`
		Expense Money  `json:"expense"`
		Net     Money  `json:"net"`
	}

	// CategoryData is one slice of the expense distribution.
	CategoryData struct {
		Category   string  `json:"category"`
		Amount     Money   `json:"amount"`
		Percentage float64 `json:"percentage"`
		Color      string  `json:"color"`
	}

	MerchantTotal struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	Insights struct {
		MonthlyForecast Money         `json:"monthly_forecast"`
		LargestMerchant MerchantTotal `json:"largest_merchant"`
	}

	// Engine derives KPIs, growth series, category distributions and
	// insights from a transaction snapshot. All methods are pure: identical
	// inputs yield identical outputs and the snapshot is never mutated.
	Engine struct {
		Palette          []string
		ForecastFraction float64
	}
)

func NewEngine() Engine {
	return Engine{
		Palette:          DefaultPalette,
		ForecastFraction: DefaultForecastFraction,
	}
}

// rangeWindow returns the inclusive date window [start, end] that rng covers,
// ending at now's calendar date.
func rangeWindow(rng TimeRange, now time.Time) (Date, Date) {
	end := DateOf(now)
	switch rng {
	case RangeWeekly:
		return DateOf(end.AddDate(0, 0, -6)), end
	case RangeMonthly:
		return DateOf(end.AddDate(0, 0, -29)), end
	default: // yearly: twelve calendar months including the current one
		first := NewDate(end.Year(), int(end.Month()), 1)
		return DateOf(first.AddDate(0, -11, 0)), end
	}
}

// previousWindow returns the window of equal length immediately before
// [start, end].
func previousWindow(rng TimeRange, start, end Date) (Date, Date) {
	if rng == RangeYearly {
		return DateOf(start.AddDate(0, -12, 0)), DateOf(end.AddDate(0, -12, 0))
	}
	days := int(end.Sub(start.Time).Hours()/24) + 1
	return DateOf(start.AddDate(0, 0, -days)), DateOf(start.AddDate(0, 0, -1))
}

func inWindow(d, from, to Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func sumByType(txs []Transaction, typ TransactionType) int64 {
	var total int64
	for _, t := range txs {
		if t.Type == typ {
			total += t.Amount.Cents
		}
	}
	return total
}

func sumInWindow(txs []Transaction, typ TransactionType, from, to Date) int64 {
	var total int64
	for _, t := range txs {
		if t.Type == typ && inWindow(t.Date, from, to) {
			total += t.Amount.Cents
		}
	}
	return total
}

// periodChange derives the percent change and trend of cur against prev.
// A zero previous period yields a zero change with the trend following the
// sign of the current value.
func periodChange(cur, prev int64) (float64, Trend) {
	if prev == 0 {
		switch {
		case cur > 0:
			return 0, TrendUp
		case cur < 0:
			return 0, TrendDown
		}
		return 0, TrendNeutral
	}
	delta := cur - prev
	change := float64(delta) / math.Abs(float64(prev)) * 100
	switch {
	case delta > 0:
		return change, TrendUp
	case delta < 0:
		return change, TrendDown
	}
	return 0, TrendNeutral
}

// KPIs computes the four summary metrics for the snapshot. Totals cover the
// whole snapshot; change and trend compare the rng window ending today with
// the window of equal length before it.
func (e Engine) KPIs(txs []Transaction, res *Resolver, rng TimeRange, now time.Time) []KPI {
	start, end := rangeWindow(rng, now)
	prevStart, prevEnd := previousWindow(rng, start, end)

	income := sumByType(txs, Income)
	expense := sumByType(txs, Expense)
	balance := income - expense

	curInc := sumInWindow(txs, Income, start, end)
	prevInc := sumInWindow(txs, Income, prevStart, prevEnd)
	curExp := sumInWindow(txs, Expense, start, end)
	prevExp := sumInWindow(txs, Expense, prevStart, prevEnd)

	incChange, incTrend := periodChange(curInc, prevInc)
	expChange, expTrend := periodChange(curExp, prevExp)
	balChange, balTrend := periodChange(curInc-curExp, prevInc-prevExp)
	if curInc-curExp == 0 && prevInc-prevExp == 0 {
		// No movement in either window: fall back to the sign of the balance.
		switch {
		case balance > 0:
			balTrend = TrendUp
		case balance < 0:
			balTrend = TrendDown
		default:
			balTrend = TrendNeutral
		}
	}

	topName, topTotal := topExpenseCategory(txs, res)
	topCur := sumForCategory(txs, res, topName, start, end)
	topPrev := sumForCategory(txs, res, topName, prevStart, prevEnd)
	topChange, topTrend := periodChange(topCur, topPrev)
	topLabel := "Top Category: None"
	if topName != "" {
		topLabel = "Top Category: " + topName
	}

	return []KPI{
		{Label: "Total Balance", Value: Money{Cents: balance}, Change: balChange, Trend: balTrend},
		{Label: "Total Income", Value: Money{Cents: income}, Change: incChange, Trend: incTrend},
		{Label: "Total Expenses", Value: Money{Cents: expense}, Change: expChange, Trend: expTrend},
		{Label: topLabel, Value: Money{Cents: topTotal}, Change: topChange, Trend: topTrend},
	}
}

// topExpenseCategory returns the expense category with the largest summed
// amount. Ties break alphabetically so the result is deterministic
// regardless of snapshot order.
func topExpenseCategory(txs []Transaction, res *Resolver) (string, int64) {
	sums := make(map[string]int64)
	for _, t := range txs {
		if t.Type == Expense {
			sums[res.DisplayName(t)] += t.Amount.Cents
		}
	}
	var best string
	var bestTotal int64
	found := false
	for name, total := range sums {
		if !found || total > bestTotal || (total == bestTotal && name < best) {
			best, bestTotal = name, total
			found = true
		}
	}
	return best, bestTotal
}

func sumForCategory(txs []Transaction, res *Resolver, name string, from, to Date) int64 {
	if name == "" {
		return 0
	}
	var total int64
	for _, t := range txs {
		if t.Type == Expense && res.DisplayName(t) == name && inWindow(t.Date, from, to) {
			total += t.Amount.Cents
		}
	}
	return total
}

// Growth buckets the snapshot into the rng's series: 7 daily points for
// weekly, 30 daily points for monthly, 12 monthly points for yearly, always
// ending at now's date. Net is income minus expense per bucket.
func (e Engine) Growth(txs []Transaction, rng TimeRange, now time.Time) []ChartDataPoint {
	end := DateOf(now)
	n := rng.Buckets()
	if n == 0 {
		n = RangeMonthly.Buckets()
		rng = RangeMonthly
	}

	labels := make([]string, 0, n)
	index := make(map[string]int, n)
	if rng == RangeYearly {
		first := DateOf(NewDate(end.Year(), int(end.Month()), 1).AddDate(0, -(n - 1), 0))
		for i := 0; i < n; i++ {
			label := first.AddDate(0, i, 0).Format("2006-01")
			index[label] = len(labels)
			labels = append(labels, label)
		}
	} else {
		first := DateOf(end.AddDate(0, 0, -(n - 1)))
		for i := 0; i < n; i++ {
			label := first.AddDate(0, 0, i).Format("2006-01-02")
			index[label] = len(labels)
			labels = append(labels, label)
		}
	}

	points := make([]ChartDataPoint, n)
	for i, label := range labels {
		points[i].Date = label
	}
	for _, t := range txs {
		label := t.Date.ISO()
		if rng == RangeYearly {
			label = t.Date.Format("2006-01")
		}
		i, ok := index[label]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			points[i].Income.Cents += t.Amount.Cents
		case Expense:
			points[i].Expense.Cents += t.Amount.Cents
		}
	}
	for i := range points {
		points[i].Net.Cents = points[i].Income.Cents - points[i].Expense.Cents
	}
	return points
}

// Distribution groups expense transactions by resolved category name and
// sizes each slice against the expense grand total. Slices are ordered by
// descending amount with alphabetical tie-break; colors cycle through the
// palette by rank. A zero grand total yields all-zero percentages.
func (e Engine) Distribution(txs []Transaction, res *Resolver) []CategoryData {
	sums := make(map[string]int64)
	var grand int64
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		name := res.DisplayName(t)
		sums[name] += t.Amount.Cents
		grand += t.Amount.Cents
	}

	out := make([]CategoryData, 0, len(sums))
	for name, total := range sums {
		pct := 0.0
		if grand > 0 {
			pct = float64(total) / float64(grand) * 100
		}
		out = append(out, CategoryData{
			Category:   name,
			Amount:     Money{Cents: total},
			Percentage: pct,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	palette := e.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	for i := range out {
		out[i].Color = palette[i%len(palette)]
	}
	return out
}

// ComputeInsights derives the narrative numbers: a forecast as a fixed
// fraction of total income to date, and the expense merchant with the
// largest summed amount (alphabetical tie-break, "None" for an empty set).
func (e Engine) ComputeInsights(txs []Transaction) Insights {
	fraction := e.ForecastFraction
	if fraction == 0 {
		fraction = DefaultForecastFraction
	}
	income := sumByType(txs, Income)
	forecast := int64(math.Round(float64(income) * fraction))

	sums := make(map[string]int64)
	for _, t := range txs {
		if t.Type == Expense {
			sums[t.Merchant] += t.Amount.Cents
		}
	}
	best := MerchantTotal{Name: "None"}
	found := false
	for name, total := range sums {
		if !found || total > best.Amount.Cents || (total == best.Amount.Cents && name < best.Name) {
			best = MerchantTotal{Name: name, Amount: Money{Cents: total}}
			found = true
		}
	}

	return Insights{
		MonthlyForecast: Money{Cents: forecast},
		LargestMerchant: best,
	}
}
