package fitness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// number accepts both JSON numbers and numeric strings; the API reports
// time series values as strings and intraday values as numbers.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type summaryEntry struct {
	DateTime string  `json:"dateTime"`
	Value    *number `json:"value"`
}

type intradayPoint struct {
	Time  string  `json:"time"`
	Value *number `json:"value"`
}

type intradaySeries struct {
	Dataset []intradayPoint `json:"dataset"`
}

type heartSummary struct {
	DateTime string `json:"dateTime"`
	Value    *struct {
		RestingHeartRate *number `json:"restingHeartRate"`
	} `json:"value"`
}

type heartPayload struct {
	Summary  []heartSummary  `json:"activities-heart"`
	Intraday *intradaySeries `json:"activities-heart-intraday"`
}

type sleepMinute struct {
	DateTime string  `json:"dateTime"`
	Value    *number `json:"value"`
}

type sleepEvent struct {
	StartTime           string        `json:"startTime"`
	TimeInBed           *number       `json:"timeInBed"`
	MinutesToFallAsleep *number       `json:"minutesToFallAsleep"`
	MinutesAsleep       *number       `json:"minutesAsleep"`
	MinutesAfterWakeup  *number       `json:"minutesAfterWakeup"`
	AwakeDuration       *number       `json:"awakeDuration"`
	RestlessDuration    *number       `json:"restlessDuration"`
	AwakeCount          *number       `json:"awakeCount"`
	RestlessCount       *number       `json:"restlessCount"`
	MinuteData          []sleepMinute `json:"minuteData"`
}

type sleepPayload struct {
	Sleep *[]sleepEvent `json:"sleep"`
}

type weightEntry struct {
	Date   string  `json:"date"`
	Weight *number `json:"weight"`
	BMI    *number `json:"bmi"`
}

type weightPayload struct {
	Weight *[]weightEntry `json:"weight"`
}

type activitySummary struct {
	Elevation            *number `json:"elevation"`
	SedentaryMinutes     *number `json:"sedentaryMinutes"`
	LightlyActiveMinutes *number `json:"lightlyActiveMinutes"`
	FairlyActiveMinutes  *number `json:"fairlyActiveMinutes"`
	VeryActiveMinutes    *number `json:"veryActiveMinutes"`
}

type activityPayload struct {
	Summary *activitySummary `json:"summary"`
}

// timeSeries is the shape shared by caloriesBMR, calories, distance, steps
// and floors: a summary array under "activities-<resource>" and, for
// intraday requests, a dataset under "activities-<resource>-intraday".
type timeSeries struct {
	Summary  []summaryEntry
	Intraday *intradaySeries
}

func decodeTimeSeries(raw json.RawMessage, resource string, wantIntraday bool) (timeSeries, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return timeSeries{}, err
	}
	summaryKey := "activities-" + resource
	summaryRaw, ok := fields[summaryKey]
	if !ok {
		return timeSeries{}, fmt.Errorf("missing %q", summaryKey)
	}
	var out timeSeries
	if err := json.Unmarshal(summaryRaw, &out.Summary); err != nil {
		return timeSeries{}, fmt.Errorf("decode %q: %w", summaryKey, err)
	}
	if !wantIntraday {
		return out, nil
	}
	intradayKey := summaryKey + "-intraday"
	intradayRaw, ok := fields[intradayKey]
	if !ok {
		return timeSeries{}, fmt.Errorf("missing %q", intradayKey)
	}
	if err := json.Unmarshal(intradayRaw, &out.Intraday); err != nil {
		return timeSeries{}, fmt.Errorf("decode %q: %w", intradayKey, err)
	}
	if out.Intraday == nil {
		return timeSeries{}, fmt.Errorf("missing %q", intradayKey)
	}
	return out, nil
}
