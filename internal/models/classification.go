package models

import (
	"encoding/json"
	"time"
)

// ABCClass is the Pareto revenue-contribution tier of a SKU.
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// XYZClass is the demand-variability tier of a SKU.
type XYZClass string

const (
	XYZClassX XYZClass = "X"
	XYZClassY XYZClass = "Y"
	XYZClassZ XYZClass = "Z"
)

// DemandPattern is the intermittency classification of a SKU's demand.
type DemandPattern string

const (
	DemandPatternRegular      DemandPattern = "regular"
	DemandPatternIntermittent DemandPattern = "intermittent"
	DemandPatternLumpy        DemandPattern = "lumpy"
)

// MAPERange is an expected-accuracy band for a classification bucket.
type MAPERange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SKUClassification is the stored, deterministic classification of one
// (client, item) pair over its training window. It is the source of truth
// for method routing.
type SKUClassification struct {
	ClientID             string        `json:"client_id" db:"client_id"`
	ItemID               string        `json:"item_id" db:"item_id"`
	ABCClass             ABCClass      `json:"abc_class" db:"abc_class"`
	XYZClass             XYZClass      `json:"xyz_class" db:"xyz_class"`
	DemandPattern        DemandPattern `json:"demand_pattern" db:"demand_pattern"`
	ADI                  float64       `json:"adi" db:"adi"`
	CVSquared            float64       `json:"cv_squared" db:"cv_squared"`
	ForecastabilityScore float64       `json:"forecastability_score" db:"forecastability_score"`
	RecommendedMethod    string        `json:"recommended_method" db:"recommended_method"`
	ExpectedMAPELow      float64       `json:"expected_mape_low" db:"expected_mape_low"`
	ExpectedMAPEHigh     float64       `json:"expected_mape_high" db:"expected_mape_high"`
	Warnings             []string      `json:"warnings" db:"-"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// ExpectedMAPERange returns the (low, high) pair for JSON response shaping.
func (c SKUClassification) ExpectedMAPERange() MAPERange {
	return MAPERange{Low: c.ExpectedMAPELow, High: c.ExpectedMAPEHigh}
}

// classificationJSON is the wire shape of a classification: the expected
// MAPE band travels as a two-element [low, high] array.
type classificationJSON struct {
	ClientID             string        `json:"client_id"`
	ItemID               string        `json:"item_id"`
	ABCClass             ABCClass      `json:"abc_class"`
	XYZClass             XYZClass      `json:"xyz_class"`
	DemandPattern        DemandPattern `json:"demand_pattern"`
	ADI                  float64       `json:"adi"`
	CVSquared            float64       `json:"cv_squared"`
	ForecastabilityScore float64       `json:"forecastability_score"`
	RecommendedMethod    string        `json:"recommended_method"`
	ExpectedMAPERange    [2]float64    `json:"expected_mape_range"`
	Warnings             []string      `json:"warnings"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// MarshalJSON encodes the classification in its wire shape.
func (c SKUClassification) MarshalJSON() ([]byte, error) {
	return json.Marshal(classificationJSON{
		ClientID:             c.ClientID,
		ItemID:               c.ItemID,
		ABCClass:             c.ABCClass,
		XYZClass:             c.XYZClass,
		DemandPattern:        c.DemandPattern,
		ADI:                  c.ADI,
		CVSquared:            c.CVSquared,
		ForecastabilityScore: c.ForecastabilityScore,
		RecommendedMethod:    c.RecommendedMethod,
		ExpectedMAPERange:    [2]float64{c.ExpectedMAPELow, c.ExpectedMAPEHigh},
		Warnings:             c.Warnings,
		UpdatedAt:            c.UpdatedAt,
	})
}

// UnmarshalJSON decodes the wire shape back into the storage struct.
func (c *SKUClassification) UnmarshalJSON(b []byte) error {
	var w classificationJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = SKUClassification{
		ClientID:             w.ClientID,
		ItemID:               w.ItemID,
		ABCClass:             w.ABCClass,
		XYZClass:             w.XYZClass,
		DemandPattern:        w.DemandPattern,
		ADI:                  w.ADI,
		CVSquared:            w.CVSquared,
		ForecastabilityScore: w.ForecastabilityScore,
		RecommendedMethod:    w.RecommendedMethod,
		ExpectedMAPELow:      w.ExpectedMAPERange[0],
		ExpectedMAPEHigh:     w.ExpectedMAPERange[1],
		Warnings:             w.Warnings,
		UpdatedAt:            w.UpdatedAt,
	}
	return nil
}
