package fitness

import (
	"encoding/json"
	"time"
)

// Variable names a metric in the closed output vocabulary.
type Variable string

// Daily metrics.
const (
	RestingHR        Variable = "resting_hr"
	WeightLB         Variable = "weight_lb"
	BMI              Variable = "bmi"
	BMRKcal          Variable = "bmr_kcal"
	Kcal             Variable = "kcal"
	Miles            Variable = "miles"
	Steps            Variable = "steps"
	Floors           Variable = "floors"
	Elevation        Variable = "elevation"
	SedentaryMin     Variable = "sedentary_min"
	LightlyActiveMin Variable = "lightly_active_min"
	FairlyActiveMin  Variable = "fairly_active_min"
	VeryActiveMin    Variable = "very_active_min"
)

// Intraday-only metrics. Kcal, Miles, Steps and Floors are shared with the daily set.
const (
	HR        Variable = "hr"
	SleepCode Variable = "sleep_code"
)

// Sleep event metrics.
const (
	SleepInBedMin        Variable = "sleep_in_bed_min"
	SleepToFallAsleepMin Variable = "sleep_to_fall_asleep_min"
	SleepMin             Variable = "sleep_min"
	SleepAfterWakeupMin  Variable = "sleep_after_wakeup_min"
	SleepAwakeMin        Variable = "sleep_awake_min"
	SleepRestlessMin     Variable = "sleep_restless_min"
	SleepAwakeN          Variable = "sleep_awake_n"
	SleepRestlessN       Variable = "sleep_restless_n"
)

// Mean reports whether the variable is an average of several readings and
// therefore always fractional, even when the mean is a whole number.
func (v Variable) Mean() bool {
	return v == WeightLB || v == BMI
}

// DailyRecord is one metric value for one calendar date.
type DailyRecord struct {
	Date     time.Time
	Variable Variable
	Value    float64
}

// IntradayRecord is one metric sample at minute or second resolution.
type IntradayRecord struct {
	Timestamp time.Time
	Variable  Variable
	Value     float64
}

// SleepRecord is one metric of a sleep event, keyed by the event start.
type SleepRecord struct {
	StartTimestamp time.Time
	Variable       Variable
	Value          float64
}

// Batch groups the three record streams. Records are never deduplicated.
type Batch struct {
	Daily    []DailyRecord
	Intraday []IntradayRecord
	Sleep    []SleepRecord
}

// Append adds other's records after b's, preserving order.
func (b *Batch) Append(other Batch) {
	b.Daily = append(b.Daily, other.Daily...)
	b.Intraday = append(b.Intraday, other.Intraday...)
	b.Sleep = append(b.Sleep, other.Sleep...)
}

// Len is the total number of records across all streams.
func (b Batch) Len() int {
	return len(b.Daily) + len(b.Intraday) + len(b.Sleep)
}

// Section names one raw API response inside a Bundle.
type Section string

const (
	SectionSleep    Section = "sleep"
	SectionWeight   Section = "weight"
	SectionBMR      Section = "bmr_kcal_day"
	SectionSteps    Section = "steps"
	SectionKcal     Section = "kcal"
	SectionFloors   Section = "floors"
	SectionMiles    Section = "miles"
	SectionHR       Section = "hr"
	SectionActivity Section = "activity"
)

// Sections lists every section a complete Bundle carries.
var Sections = []Section{
	SectionSleep,
	SectionWeight,
	SectionBMR,
	SectionSteps,
	SectionKcal,
	SectionFloors,
	SectionMiles,
	SectionHR,
	SectionActivity,
}

// Bundle holds the raw JSON responses fetched for one date.
type Bundle map[Section]json.RawMessage

// Missing returns the sections absent from the bundle.
func (b Bundle) Missing() []Section {
	var out []Section
	for _, s := range Sections {
		if len(b[s]) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// DateMode selects how records are attributed to calendar dates.
type DateMode int

const (
	// DateModeLegacy reproduces the historical attribution: weight and
	// activity rows take whatever date was read last, and intraday samples
	// take the first summary entry's date.
	DateModeLegacy DateMode = iota
	// DateModeEntry gives every record the date of its own entry.
	DateModeEntry
)

func (m DateMode) String() string {
	if m == DateModeEntry {
		return "entry"
	}
	return "legacy"
}

// RequestedDate pairs the date string typed by the user with its parsed day.
type RequestedDate struct {
	Raw string
	Day time.Time
}
