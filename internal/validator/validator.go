// Package validator normalizes a per-SKU daily sales series into the
// gap-free, strictly numeric, non-negative form the classifier and models
// require.
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

const dateLayout = "2006-01-02"

// DefaultMinHistoryDays is used when Options.MinHistoryDays is zero.
const DefaultMinHistoryDays = 30

// RawSeriesPoint is one row of a per-item series as handed off by the
// ingestion collaborator, before type coercion. DateStr unparseable or
// empty rows are dropped at step 2; a nil UnitsSold represents a NaN/missing
// value subject to the configured NaNPolicy.
type RawSeriesPoint struct {
	ItemID    string
	DateStr   string
	UnitsSold *float64
}

// Options configures one Validate call.
type Options struct {
	FillMissingDates bool
	NaNPolicy        models.NaNPolicy
	FillValue        float64
	MinHistoryDays   int
}

func (o Options) minHistoryDays() int {
	if o.MinHistoryDays <= 0 {
		return DefaultMinHistoryDays
	}
	return o.MinHistoryDays
}

func (o Options) nanPolicy() models.NaNPolicy {
	if o.NaNPolicy == "" {
		return models.NaNPolicyZero
	}
	return o.NaNPolicy
}

// Validate runs the cleanup pipeline over one item's raw series and returns
// the normalized series plus a report, or an error for
// INSUFFICIENT_HISTORY / INVALID_SERIES.
func Validate(raw []RawSeriesPoint, opts Options) ([]models.SeriesPoint, models.ValidationReport, error) {
	report := models.ValidationReport{OriginalRows: len(raw)}

	if len(raw) == 0 {
		return nil, report, forecasterr.New(forecasterr.KindInvalidSeries, "series has no rows")
	}

	// (2) drop rows where date is unparseable.
	type parsedRow struct {
		itemID string
		date   time.Time
		units  *float64
		filled bool
	}
	parsed := make([]parsedRow, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse(dateLayout, r.DateStr)
		if err != nil {
			continue
		}
		parsed = append(parsed, parsedRow{itemID: r.ItemID, date: t, units: r.UnitsSold})
	}

	if len(parsed) == 0 {
		return nil, report, forecasterr.New(forecasterr.KindInvalidSeries, "no row had a parseable date")
	}

	// (3) sort ascending by date.
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].date.Before(parsed[j].date) })

	// (4) drop duplicate dates, keeping the first occurrence.
	deduped := make([]parsedRow, 0, len(parsed))
	seen := make(map[string]bool, len(parsed))
	droppedDuplicates := 0
	for _, p := range parsed {
		key := p.date.Format(dateLayout)
		if seen[key] {
			droppedDuplicates++
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}
	report.DroppedDuplicates = droppedDuplicates

	itemID := deduped[0].itemID
	minDate := deduped[0].date
	maxDate := deduped[len(deduped)-1].date

	// (5)/(6) inferred frequency: daily is required. Fill gaps when asked,
	// otherwise record a warning for any gap found.
	byDate := make(map[string]parsedRow, len(deduped))
	for _, p := range deduped {
		byDate[p.date.Format(dateLayout)] = p
	}

	var warnings []string
	filledDates := 0
	continuous := make([]parsedRow, 0, int(maxDate.Sub(minDate).Hours()/24)+1)
	hasGap := false
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		if row, ok := byDate[key]; ok {
			continuous = append(continuous, row)
			continue
		}
		hasGap = true
		if !opts.FillMissingDates {
			continue
		}
		filledDates++
		continuous = append(continuous, parsedRow{itemID: itemID, date: d, units: nil, filled: true})
	}
	if hasGap {
		if opts.FillMissingDates {
			warnings = append(warnings, fmt.Sprintf("filled %d missing calendar dates", filledDates))
		} else {
			warnings = append(warnings, "series has non-daily/inconsistent frequency")
		}
	}
	report.FilledDates = filledDates

	// (7) apply the NaN policy.
	policy := opts.nanPolicy()
	replacedNaNs := 0
	var lastValid float64
	haveLastValid := false
	for i := range continuous {
		if continuous[i].units != nil {
			lastValid = *continuous[i].units
			haveLastValid = true
			continue
		}
		if !continuous[i].filled {
			replacedNaNs++
		}
		switch policy {
		case models.NaNPolicyZero:
			v := 0.0
			continuous[i].units = &v
		case models.NaNPolicyForwardFill:
			v := 0.0
			if haveLastValid {
				v = lastValid
			}
			continuous[i].units = &v
		case models.NaNPolicyValue:
			v := opts.FillValue
			continuous[i].units = &v
		case models.NaNPolicyError:
			return nil, report, forecasterr.New(forecasterr.KindInvalidSeries, "NaN present with policy=error")
		default:
			v := 0.0
			continuous[i].units = &v
		}
	}
	report.ReplacedNaNs = replacedNaNs

	// (8) clip negative units to 0.
	negativeCount := 0
	out := make([]models.SeriesPoint, 0, len(continuous))
	for _, p := range continuous {
		units := *p.units
		if units < 0 {
			negativeCount++
			units = 0
		}
		out = append(out, models.SeriesPoint{ItemID: itemID, Date: p.date, UnitsSold: units})
	}
	if negativeCount > 0 {
		warnings = append(warnings, fmt.Sprintf("negative_values_clipped:%d", negativeCount))
	}

	report.CleanedRows = len(out)
	report.Warnings = warnings

	// (9) enforce minimum history.
	if len(out) < opts.minHistoryDays() {
		return nil, report, forecasterr.New(
			forecasterr.KindInsufficientHistory,
			fmt.Sprintf("series has %d days, need at least %d", len(out), opts.minHistoryDays()),
		)
	}

	return out, report, nil
}
