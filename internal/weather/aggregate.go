package weather

import "time"

// AreaSummary condenses the nearby-locations list into one reading.
type AreaSummary struct {
	Locations     int          `json:"locations"`
	Temperature   float64      `json:"temperatureK"`
	Humidity      float64      `json:"humidityPercent"`
	WindSpeed     float64      `json:"windSpeedKmh"`
	Pressure      float64      `json:"pressureHpa"`
	Condition     string       `json:"condition"`
	ConditionCode int          `json:"conditionCode"`
	Warmest       *LocationRef `json:"warmest,omitempty"`
	Coldest       *LocationRef `json:"coldest,omitempty"`
	ObservedAt    time.Time    `json:"observedAt"`
}

// Summarize averages the numeric fields of records and picks the majority condition,
// the first one seen winning ties. ObservedAt is the newest observation. ok is false for
// an empty list.
func Summarize(records []WeatherRecord) (summary AreaSummary, ok bool) {
	if len(records) == 0 {
		return AreaSummary{}, false
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
	)

	conditionCounts := make(map[string]int)
	var order []string
	codes := make(map[string]int)
	warmest, coldest := records[0], records[0]

	for _, r := range records {
		sumTemp += r.Temperature
		sumHumidity += float64(r.Humidity)
		sumWind += r.WindSpeed
		sumPressure += r.Pressure

		if conditionCounts[r.Condition] == 0 {
			order = append(order, r.Condition)
			codes[r.Condition] = r.ConditionCode
		}
		conditionCounts[r.Condition]++

		if r.ObservedAt.After(summary.ObservedAt) {
			summary.ObservedAt = r.ObservedAt
		}
		if r.Temperature > warmest.Temperature {
			warmest = r
		}
		if r.Temperature < coldest.Temperature {
			coldest = r
		}
	}

	n := float64(len(records))

	bestCond := order[0]
	for _, cond := range order[1:] {
		if conditionCounts[cond] > conditionCounts[bestCond] {
			bestCond = cond
		}
	}

	summary.Locations = len(records)
	summary.Temperature = sumTemp / n
	summary.Humidity = sumHumidity / n
	summary.WindSpeed = sumWind / n
	summary.Pressure = sumPressure / n
	summary.Condition = bestCond
	summary.ConditionCode = codes[bestCond]
	summary.Warmest = &warmest.Location
	summary.Coldest = &coldest.Location
	return summary, true
}
