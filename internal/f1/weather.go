package f1

// Track conditions derived from weather samples.
const (
	ConditionDry     = "Dry"
	ConditionWet     = "Wet"
	ConditionUnknown = "Unknown"
)

// WeatherSummary condenses the weather samples of a session.
type WeatherSummary struct {
	Samples     int
	AirAvg      float64
	TrackAvg    float64
	TrackMin    float64
	TrackMax    float64
	HumidityAvg float64
	WindAvg     float64
	// Condition is the majority condition over all samples; ties go to Wet.
	Condition string
}

func sampleCondition(w Weather) string {
	if w.Rainfall > 0 {
		return ConditionWet
	}
	return ConditionDry
}

// SummarizeWeather combines session samples into a single summary.
// Numeric fields are averaged, track temperature also keeps its range.
func SummarizeWeather(samples []Weather) WeatherSummary {
	if len(samples) == 0 {
		return WeatherSummary{Condition: ConditionUnknown}
	}

	var (
		sumAir      float64
		sumTrack    float64
		sumHumidity float64
		sumWind     float64
		wet         int
	)
	s := WeatherSummary{
		Samples:  len(samples),
		TrackMin: samples[0].TrackTemperature,
		TrackMax: samples[0].TrackTemperature,
	}

	for _, w := range samples {
		sumAir += w.AirTemperature
		sumTrack += w.TrackTemperature
		sumHumidity += w.Humidity
		sumWind += w.WindSpeed

		s.TrackMin = min(s.TrackMin, w.TrackTemperature)
		s.TrackMax = max(s.TrackMax, w.TrackTemperature)

		if sampleCondition(w) == ConditionWet {
			wet++
		}
	}

	n := float64(len(samples))
	s.AirAvg = sumAir / n
	s.TrackAvg = sumTrack / n
	s.HumidityAvg = sumHumidity / n
	s.WindAvg = sumWind / n

	s.Condition = ConditionDry
	if wet*2 >= len(samples) {
		s.Condition = ConditionWet
	}
	return s
}
