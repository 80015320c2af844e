package fitness

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
	"github.com/yanqian/fitbit-export/pkg/util"
)

// Flatten turns one date's raw responses into records. Sections are read
// in a fixed order: heart rate, sleep, weight, BMR calories, calories,
// distance, steps, floors, then the activity summary. The mode decides how
// weight, activity and intraday records are dated.
func Flatten(bundle Bundle, requested time.Time, mode DateMode) (Batch, error) {
	if missing := bundle.Missing(); len(missing) > 0 {
		return Batch{}, apperrors.Wrap(apperrors.CodePayloadInvalid, fmt.Sprintf("bundle is missing sections %v", missing), nil)
	}
	f := &flattener{mode: mode, requested: requested, cursor: requested}
	steps := []struct {
		section Section
		run     func(json.RawMessage) error
	}{
		{SectionHR, f.heart},
		{SectionSleep, f.sleep},
		{SectionWeight, f.weight},
		{SectionBMR, f.bmr},
		{SectionKcal, f.series("calories", Kcal)},
		{SectionMiles, f.series("distance", Miles)},
		{SectionSteps, f.series("steps", Steps)},
		{SectionFloors, f.series("floors", Floors)},
		{SectionActivity, f.activity},
	}
	for _, step := range steps {
		if err := step.run(bundle[step.section]); err != nil {
			return Batch{}, apperrors.Wrap(apperrors.CodePayloadInvalid, fmt.Sprintf("flatten %s", step.section), err)
		}
	}
	return f.out, nil
}

type flattener struct {
	mode      DateMode
	requested time.Time
	// cursor is the most recently read summary date. Legacy mode dates
	// weight and activity rows with it.
	cursor time.Time
	out    Batch
}

func (f *flattener) daily(date time.Time, v Variable, value float64) {
	f.out.Daily = append(f.out.Daily, DailyRecord{Date: date, Variable: v, Value: value})
}

func (f *flattener) intraday(ts time.Time, v Variable, value float64) {
	f.out.Intraday = append(f.out.Intraday, IntradayRecord{Timestamp: ts, Variable: v, Value: value})
}

// intradayBase is the day intraday clocks are placed on.
func (f *flattener) intradayBase(firstSummary string, hasSamples bool) (time.Time, error) {
	if f.mode == DateModeEntry || !hasSamples {
		return f.requested, nil
	}
	if firstSummary == "" {
		return time.Time{}, fmt.Errorf("intraday samples without a summary date")
	}
	return parseDay(firstSummary)
}

func (f *flattener) samples(base time.Time, v Variable, points []intradayPoint) error {
	for i, p := range points {
		if p.Value == nil {
			return fmt.Errorf("intraday sample %d: missing value", i)
		}
		ts, err := atClock(base, p.Time)
		if err != nil {
			return fmt.Errorf("intraday sample %d: %w", i, err)
		}
		f.intraday(ts, v, float64(*p.Value))
	}
	return nil
}

func (f *flattener) heart(raw json.RawMessage) error {
	var p heartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Summary == nil {
		return fmt.Errorf(`missing "activities-heart"`)
	}
	for i, s := range p.Summary {
		date, err := parseDay(s.DateTime)
		if err != nil {
			return fmt.Errorf("heart summary %d: %w", i, err)
		}
		if s.Value == nil || s.Value.RestingHeartRate == nil {
			return fmt.Errorf("heart summary %d: missing restingHeartRate", i)
		}
		f.cursor = date
		f.daily(date, RestingHR, float64(*s.Value.RestingHeartRate))
	}
	if p.Intraday == nil {
		return fmt.Errorf(`missing "activities-heart-intraday"`)
	}
	first := ""
	if len(p.Summary) > 0 {
		first = p.Summary[0].DateTime
	}
	base, err := f.intradayBase(first, len(p.Intraday.Dataset) > 0)
	if err != nil {
		return err
	}
	return f.samples(base, HR, p.Intraday.Dataset)
}

func (f *flattener) sleep(raw json.RawMessage) error {
	var p sleepPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Sleep == nil {
		return fmt.Errorf(`missing "sleep"`)
	}
	for i, ev := range *p.Sleep {
		start, err := parseStart(ev.StartTime)
		if err != nil {
			return fmt.Errorf("sleep event %d: %w", i, err)
		}
		fields := []struct {
			v     Variable
			name  string
			value *number
		}{
			{SleepInBedMin, "timeInBed", ev.TimeInBed},
			{SleepToFallAsleepMin, "minutesToFallAsleep", ev.MinutesToFallAsleep},
			{SleepMin, "minutesAsleep", ev.MinutesAsleep},
			{SleepAfterWakeupMin, "minutesAfterWakeup", ev.MinutesAfterWakeup},
			{SleepAwakeMin, "awakeDuration", ev.AwakeDuration},
			{SleepRestlessMin, "restlessDuration", ev.RestlessDuration},
			{SleepAwakeN, "awakeCount", ev.AwakeCount},
			{SleepRestlessN, "restlessCount", ev.RestlessCount},
		}
		for _, fld := range fields {
			if fld.value == nil {
				return fmt.Errorf("sleep event %d: missing %s", i, fld.name)
			}
			f.out.Sleep = append(f.out.Sleep, SleepRecord{StartTimestamp: start, Variable: fld.v, Value: float64(*fld.value)})
		}

		startDay := util.Day(start)
		for j, m := range ev.MinuteData {
			if m.Value == nil {
				return fmt.Errorf("sleep event %d minute %d: missing value", i, j)
			}
			ts, err := atClock(startDay, m.DateTime)
			if err != nil {
				return fmt.Errorf("sleep event %d minute %d: %w", i, j, err)
			}
			// A clock hour earlier than the start hour has crossed midnight.
			if ts.Hour() < start.Hour() {
				ts = ts.Add(24 * time.Hour)
			}
			f.intraday(ts, SleepCode, float64(*m.Value))
		}
	}
	return nil
}

func (f *flattener) weight(raw json.RawMessage) error {
	var p weightPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Weight == nil {
		return fmt.Errorf(`missing "weight"`)
	}
	type sums struct {
		date          time.Time
		weight, bmi   float64
		nWeight, nBMI int
	}
	var order []string
	groups := map[string]*sums{}
	for i, w := range *p.Weight {
		if w.Weight == nil || w.BMI == nil {
			return fmt.Errorf("weight entry %d: missing weight or bmi", i)
		}
		date, err := parseDay(w.Date)
		if err != nil {
			return fmt.Errorf("weight entry %d: %w", i, err)
		}
		f.cursor = date
		g, ok := groups[w.Date]
		if !ok {
			g = &sums{date: date}
			groups[w.Date] = g
			order = append(order, w.Date)
		}
		g.weight += float64(*w.Weight)
		g.nWeight++
		g.bmi += float64(*w.BMI)
		g.nBMI++
	}
	for _, key := range order {
		g := groups[key]
		date := g.date
		if f.mode == DateModeLegacy {
			date = f.cursor
		}
		if g.nWeight > 0 {
			f.daily(date, WeightLB, g.weight/float64(g.nWeight))
		}
		if g.nBMI > 0 {
			f.daily(date, BMI, g.bmi/float64(g.nBMI))
		}
	}
	return nil
}

func (f *flattener) summaries(entries []summaryEntry, v Variable) error {
	for i, s := range entries {
		date, err := parseDay(s.DateTime)
		if err != nil {
			return fmt.Errorf("summary %d: %w", i, err)
		}
		if s.Value == nil {
			return fmt.Errorf("summary %d: missing value", i)
		}
		f.cursor = date
		f.daily(date, v, float64(*s.Value))
	}
	return nil
}

func (f *flattener) bmr(raw json.RawMessage) error {
	ts, err := decodeTimeSeries(raw, "caloriesBMR", false)
	if err != nil {
		return err
	}
	return f.summaries(ts.Summary, BMRKcal)
}

// series handles the resources that carry both a daily summary and a
// minute-level dataset.
func (f *flattener) series(resource string, v Variable) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		ts, err := decodeTimeSeries(raw, resource, true)
		if err != nil {
			return err
		}
		if err := f.summaries(ts.Summary, v); err != nil {
			return err
		}
		first := ""
		if len(ts.Summary) > 0 {
			first = ts.Summary[0].DateTime
		}
		base, err := f.intradayBase(first, len(ts.Intraday.Dataset) > 0)
		if err != nil {
			return err
		}
		return f.samples(base, v, ts.Intraday.Dataset)
	}
}

func (f *flattener) activity(raw json.RawMessage) error {
	var p activityPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Summary == nil {
		return fmt.Errorf(`missing "summary"`)
	}
	date := f.cursor
	if f.mode == DateModeEntry {
		date = f.requested
	}
	s := p.Summary
	fields := []struct {
		v     Variable
		name  string
		value *number
	}{
		{Elevation, "elevation", s.Elevation},
		{SedentaryMin, "sedentaryMinutes", s.SedentaryMinutes},
		{LightlyActiveMin, "lightlyActiveMinutes", s.LightlyActiveMinutes},
		{FairlyActiveMin, "fairlyActiveMinutes", s.FairlyActiveMinutes},
		{VeryActiveMin, "veryActiveMinutes", s.VeryActiveMinutes},
	}
	for _, fld := range fields {
		if fld.value == nil {
			return fmt.Errorf("activity summary: missing %s", fld.name)
		}
		f.daily(date, fld.v, float64(*fld.value))
	}
	return nil
}
