package f1

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Race is a single round of the season calendar.
// Identity is the round number within a season.
type Race struct {
	Round       int    `json:"round" validate:"gte=1"`
	RaceName    string `json:"raceName" validate:"required"`
	CircuitName string `json:"circuitName"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"omitempty,racetime"`
	Country     string `json:"country"`
	FlagURL     string `json:"flagUrl"`
}

var raceTimeLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05",
	"15:04Z07:00",
	"15:04",
}

// StartsAt combines Date and Time into a UTC instant.
// An empty Time means midnight UTC; a Time without zone is read as UTC.
func (r Race) StartsAt() (time.Time, error) {
	day, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("race %d: invalid date %q: %w", r.Round, r.Date, err)
	}
	if r.Time == "" {
		return day.UTC(), nil
	}

	clock, err := parseRaceTime(r.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("race %d: invalid time %q: %w", r.Round, r.Time, err)
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, clock.Location()).UTC(), nil
}

func parseRaceTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range raceTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DriverStanding is one row of the drivers' championship.
// Position and Points are taken as-is from the source.
type DriverStanding struct {
	Position     int             `json:"position" validate:"gte=1"`
	DriverNumber string          `json:"driver_number" validate:"required"`
	FullName     string          `json:"full_name" validate:"required"`
	Points       decimal.Decimal `json:"points"`
}

// ConstructorStanding is one row of the constructors' championship.
type ConstructorStanding struct {
	Position int             `json:"position" validate:"gte=1"`
	Name     string          `json:"name" validate:"required"`
	Points   decimal.Decimal `json:"points"`
}

// Driver is a driver entry as listed by the statistics API, optionally scoped to a session.
type Driver struct {
	DriverNumber  int    `json:"driver_number" validate:"gte=0"`
	BroadcastName string `json:"broadcast_name"`
	FullName      string `json:"full_name"`
	NameAcronym   string `json:"name_acronym"`
	TeamName      string `json:"team_name"`
	TeamColour    string `json:"team_colour"`
	CountryCode   string `json:"country_code"`
	HeadshotURL   string `json:"headshot_url"`
	MeetingKey    int    `json:"meeting_key"`
	SessionKey    int    `json:"session_key"`
}

// LiveTiming is a per-driver lap sample of a session.
// Identity is (DriverNumber, DateStart). Measurements the source has not
// produced yet are nil.
type LiveTiming struct {
	DateStart    time.Time `json:"date_start"`
	DriverNumber int       `json:"driver_number" validate:"gte=0"`
	MeetingKey   int       `json:"meeting_key"`
	SessionKey   int       `json:"session_key"`
	LapNumber    int       `json:"lap_number"`
	I1Speed      *int      `json:"i1_speed"`
	I2Speed      *int      `json:"i2_speed"`
	STSpeed      *int      `json:"st_speed"`
	Sector1      *float64  `json:"duration_sector_1"`
	Sector2      *float64  `json:"duration_sector_2"`
	Sector3      *float64  `json:"duration_sector_3"`
	LapDuration  *float64  `json:"lap_duration"`
	IsPitOutLap  bool      `json:"is_pit_out_lap"`
}

// Weather is an environmental sample of a session.
type Weather struct {
	Date             time.Time `json:"date"`
	AirTemperature   float64   `json:"air_temperature"`
	TrackTemperature float64   `json:"track_temperature"`
	Humidity         float64   `json:"humidity"`
	Pressure         float64   `json:"pressure"`
	Rainfall         float64   `json:"rainfall"`
	WindDirection    int       `json:"wind_direction"`
	WindSpeed        float64   `json:"wind_speed"`
	MeetingKey       int       `json:"meeting_key"`
	SessionKey       int       `json:"session_key"`
}

// Event type codes accepted by the plotting endpoint.
const (
	EventRace             = "R"
	EventQualifying       = "Q"
	EventSprint           = "S"
	EventSprintQualifying = "SQ"
	EventPractice1        = "FP1"
	EventPractice2        = "FP2"
	EventPractice3        = "FP3"
)

// PlotQuery identifies the session a gear-shift plot is drawn for.
type PlotQuery struct {
	Year      int    `validate:"gte=1950,lte=2100"`
	Location  string `validate:"required"`
	EventType string `validate:"required,oneof=R Q S SQ FP1 FP2 FP3"`
}

// Plot is a rendered telemetry image as returned by the plotting endpoint.
type Plot struct {
	ContentType string
	Data        []byte
}

// DataURI returns the image as an inline reference usable in an <img> tag.
func (p Plot) DataURI() string {
	ct := p.ContentType
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// TeamResult is the points one constructor scored in one round.
type TeamResult struct {
	Round  int
	Team   string
	Points decimal.Decimal
}
