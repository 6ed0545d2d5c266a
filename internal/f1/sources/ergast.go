package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/i474232898/pitbuddy/internal/f1"
)

// DefaultErgastURL is the Jolpica mirror of the Ergast F1 API.
const DefaultErgastURL = "https://api.jolpi.ca/ergast/f1"

// ergastPageSize is the largest page the API serves.
const ergastPageSize = 100

// ErgastClient reads seasons from an Ergast compatible API and maps them onto
// the canonical records served by the backend.
type ErgastClient struct {
	endpoint
}

func NewErgastClient(cfg HTTPClientConfig, baseURL string) *ErgastClient {
	if baseURL == "" {
		baseURL = DefaultErgastURL
	}
	return &ErgastClient{endpoint: newEndpoint("ergast", baseURL, cfg)}
}

type ergastResponse struct {
	MRData struct {
		Limit          string `json:"limit"`
		Offset         string `json:"offset"`
		Total          string `json:"total"`
		RaceTable      ergastRaceTable      `json:"RaceTable"`
		StandingsTable ergastStandingsTable `json:"StandingsTable"`
	} `json:"MRData"`
}

type ergastRaceTable struct {
	Season string       `json:"season"`
	Races  []ergastRace `json:"Races"`
}

type ergastRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Circuit  struct {
		CircuitID   string `json:"circuitId"`
		CircuitName string `json:"circuitName"`
		Location    struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Date    string         `json:"date"`
	Time    string         `json:"time"`
	Results []ergastResult `json:"Results"`
}

type ergastResult struct {
	Position    string            `json:"position"`
	Points      string            `json:"points"`
	Constructor ergastConstructor `json:"Constructor"`
}

type ergastDriver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
}

type ergastConstructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
}

type ergastStandingsTable struct {
	Season         string `json:"season"`
	Round          string `json:"round"`
	StandingsLists []struct {
		Season          string `json:"season"`
		Round           string `json:"round"`
		DriverStandings []struct {
			Position     string       `json:"position"`
			PositionText string       `json:"positionText"`
			Points       string       `json:"points"`
			Wins         string       `json:"wins"`
			Driver       ergastDriver `json:"Driver"`
		} `json:"DriverStandings"`
		ConstructorStandings []struct {
			Position     string            `json:"position"`
			PositionText string            `json:"positionText"`
			Points       string            `json:"points"`
			Wins         string            `json:"wins"`
			Constructor  ergastConstructor `json:"Constructor"`
		} `json:"ConstructorStandings"`
	} `json:"StandingsLists"`
}

func seasonPath(season, resource string) string {
	season = strings.TrimSpace(season)
	if season == "" {
		season = "current"
	}
	if resource == "" {
		return "/" + url.PathEscape(season) + ".json"
	}
	return "/" + url.PathEscape(season) + "/" + resource + ".json"
}

func pageQuery(offset int) url.Values {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(ergastPageSize))
	values.Set("offset", strconv.Itoa(offset))
	return values
}

// position parses an Ergast position, falling back to the 1-based row index
// for unclassified entries.
func position(s string, idx int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return idx + 1
}

func points(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: points %q: %v", f1.ErrInvalidPayload, s, err)
	}
	return d, nil
}

func driverNumber(d ergastDriver) string {
	switch {
	case d.PermanentNumber != "":
		return d.PermanentNumber
	case d.Code != "":
		return d.Code
	default:
		return d.DriverID
	}
}

// DriverStandings returns the latest drivers' championship of season.
// An empty list means the season has no standings yet.
func (c *ErgastClient) DriverStandings(ctx context.Context, season string) ([]f1.DriverStanding, error) {
	resp, err := getJSON[ergastResponse](ctx, &c.endpoint, seasonPath(season, "driverStandings"), pageQuery(0))
	if err != nil {
		return nil, err
	}
	lists := resp.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		return []f1.DriverStanding{}, nil
	}

	out := make([]f1.DriverStanding, 0, len(lists[0].DriverStandings))
	for i, row := range lists[0].DriverStandings {
		pts, err := points(row.Points)
		if err != nil {
			return nil, err
		}
		out = append(out, f1.DriverStanding{
			Position:     position(row.Position, i),
			DriverNumber: driverNumber(row.Driver),
			FullName:     strings.TrimSpace(row.Driver.GivenName + " " + row.Driver.FamilyName),
			Points:       pts,
		})
	}
	if err := f1.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConstructorStandings returns the latest constructors' championship of season.
func (c *ErgastClient) ConstructorStandings(ctx context.Context, season string) ([]f1.ConstructorStanding, error) {
	resp, err := getJSON[ergastResponse](ctx, &c.endpoint, seasonPath(season, "constructorStandings"), pageQuery(0))
	if err != nil {
		return nil, err
	}
	lists := resp.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		return []f1.ConstructorStanding{}, nil
	}

	out := make([]f1.ConstructorStanding, 0, len(lists[0].ConstructorStandings))
	for i, row := range lists[0].ConstructorStandings {
		pts, err := points(row.Points)
		if err != nil {
			return nil, err
		}
		out = append(out, f1.ConstructorStanding{
			Position: position(row.Position, i),
			Name:     row.Constructor.Name,
			Points:   pts,
		})
	}
	if err := f1.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Schedule returns the race calendar of season in round order.
func (c *ErgastClient) Schedule(ctx context.Context, season string) ([]f1.Race, error) {
	resp, err := getJSON[ergastResponse](ctx, &c.endpoint, seasonPath(season, ""), pageQuery(0))
	if err != nil {
		return nil, err
	}

	out := make([]f1.Race, 0, len(resp.MRData.RaceTable.Races))
	for _, r := range resp.MRData.RaceTable.Races {
		round, err := strconv.Atoi(r.Round)
		if err != nil {
			return nil, fmt.Errorf("%w: round %q: %v", f1.ErrInvalidPayload, r.Round, err)
		}
		out = append(out, f1.Race{
			Round:       round,
			RaceName:    r.RaceName,
			CircuitName: r.Circuit.CircuitName,
			Date:        r.Date,
			Time:        r.Time,
			Country:     r.Circuit.Location.Country,
			FlagURL:     FlagURL(r.Circuit.Location.Country),
		})
	}
	if err := f1.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TeamResults returns every classified result of season with its constructor,
// following the API's pagination.
func (c *ErgastClient) TeamResults(ctx context.Context, season string) ([]f1.TeamResult, error) {
	var out []f1.TeamResult

	for offset := 0; ; {
		resp, err := getJSON[ergastResponse](ctx, &c.endpoint, seasonPath(season, "results"), pageQuery(offset))
		if err != nil {
			return nil, err
		}

		rows := 0
		for _, race := range resp.MRData.RaceTable.Races {
			round, _ := strconv.Atoi(race.Round)
			for _, res := range race.Results {
				rows++
				pts, err := points(res.Points)
				if err != nil {
					return nil, err
				}
				out = append(out, f1.TeamResult{
					Round:  round,
					Team:   res.Constructor.Name,
					Points: pts,
				})
			}
		}

		total, _ := strconv.Atoi(resp.MRData.Total)
		offset += rows
		if rows == 0 || offset >= total {
			break
		}
	}

	return lo.Filter(out, func(r f1.TeamResult, _ int) bool { return r.Team != "" }), nil
}
