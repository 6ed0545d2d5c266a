package httpapi

import (
	"errors"
	"html/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/pitbuddy/internal/f1"
)

var validate = validator.New()

// RegisterRoutes wires the page handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *f1.Service, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &pages{service: service, log: log.Named("pages")}

	app.Get("/", h.home)
	app.Get("/schedule", h.schedule)
	app.Get("/standings", h.standings)
	app.Get("/livetiming", h.liveTiming)
	app.Get("/drivers", h.drivers)
	app.Get("/telemetry", h.telemetry)
}

type pages struct {
	service *f1.Service
	log     *zap.Logger
}

func (h *pages) home(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{"Title": "Home", "Home": true}, layout)
}

func (h *pages) schedule(c *fiber.Ctx) error {
	cal, err := h.service.Calendar(c.UserContext())
	if err != nil {
		return err
	}

	season := 0
	if len(cal.Entries) > 0 {
		season = cal.Entries[0].StartsAt.Year()
	}

	return c.Render("schedule", fiber.Map{
		"Title":    "Race Calendar",
		"Season":   season,
		"Calendar": cal,
	}, layout)
}

func (h *pages) standings(c *fiber.Ctx) error {
	st, err := h.service.Standings(c.UserContext())
	if err != nil {
		return err
	}
	return c.Render("standings", fiber.Map{
		"Title":     "Championship Standings",
		"Standings": st,
	}, layout)
}

// sessionQuery holds the optional session identifier of the OpenF1 pages.
type sessionQuery struct {
	SessionKey string `query:"session_key" validate:"omitempty,max=16,number|eq=latest"`
}

func parseSessionQuery(c *fiber.Ctx) (sessionQuery, error) {
	var q sessionQuery
	if err := c.QueryParser(&q); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (h *pages) liveTiming(c *fiber.Ctx) error {
	q, err := parseSessionQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	timing, err := h.service.LiveTiming(c.UserContext(), q.SessionKey)
	if err != nil {
		return err
	}
	return c.Render("livetiming", fiber.Map{
		"Title":  "Live Timing",
		"Timing": timing,
	}, layout)
}

func (h *pages) drivers(c *fiber.Ctx) error {
	q, err := parseSessionQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	drivers, err := h.service.Drivers(c.UserContext(), q.SessionKey)
	if err != nil {
		return err
	}
	return c.Render("drivers", fiber.Map{
		"Title":      "Drivers",
		"SessionKey": q.SessionKey,
		"Drivers":    drivers,
	}, layout)
}

// telemetryForm holds the gear shift plot selection.
type telemetryForm struct {
	Fetch     bool   `query:"fetch"`
	Year      int    `query:"year"`
	Location  string `query:"location"`
	EventType string `query:"event_type"`
}

type eventTypeOption struct {
	Code  string
	Label string
}

var eventTypes = []eventTypeOption{
	{f1.EventRace, "Race"},
	{f1.EventQualifying, "Qualifying"},
	{f1.EventSprint, "Sprint"},
	{f1.EventSprintQualifying, "Sprint Qualifying"},
	{f1.EventPractice1, "FP1"},
	{f1.EventPractice2, "FP2"},
	{f1.EventPractice3, "FP3"},
}

var plotLocations = []string{
	"Australia", "Bahrain", "Saudi Arabia", "Japan", "China", "Miami", "Imola", "Monaco",
	"Canada", "Spain", "Austria", "Silverstone", "Hungary", "Spa", "Zandvoort", "Monza",
	"Baku", "Singapore", "Austin", "Mexico City", "Sao Paulo", "Las Vegas", "Qatar", "Abu Dhabi",
}

const firstPlotYear = 2018

func plotYears(now time.Time) []int {
	var years []int
	for y := now.Year(); y >= firstPlotYear; y-- {
		years = append(years, y)
	}
	return years
}

// telemetry renders the plot selector. When a plot fails to load the error is
// logged and the page keeps showing the placeholder.
func (h *pages) telemetry(c *fiber.Ctx) error {
	form := telemetryForm{
		Year:      time.Now().Year(),
		Location:  plotLocations[0],
		EventType: f1.EventRace,
	}
	if err := c.QueryParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	data := fiber.Map{
		"Title":      "Telemetry",
		"Form":       form,
		"Years":      plotYears(time.Now()),
		"Locations":  plotLocations,
		"EventTypes": eventTypes,
	}

	if form.Fetch {
		plot, err := h.service.GearShiftPlot(c.UserContext(), f1.PlotQuery{
			Year:      form.Year,
			Location:  form.Location,
			EventType: form.EventType,
		})
		switch {
		case errors.Is(err, f1.ErrInvalidQuery):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case err != nil:
			h.log.Error("error fetching gear shifts plot",
				zap.Int("year", form.Year),
				zap.String("location", form.Location),
				zap.String("event_type", form.EventType),
				zap.Error(err))
		default:
			// Data URIs are rejected by html/template unless marked safe.
			data["Image"] = template.URL(plot.DataURI())
		}
	}

	return c.Render("telemetry", data, layout)
}

// ErrorHandler renders failures as an error page. Upstream failures map to
// 502, rejected input to 400.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("render failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
		}

		c.Status(code)
		renderErr := c.Render("error", fiber.Map{
			"Title":   "Error",
			"Status":  code,
			"Message": err.Error(),
		}, layout)
		if renderErr != nil {
			return c.SendString(err.Error())
		}
		return nil
	}
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, f1.ErrInvalidQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, f1.ErrFetchFailed), errors.Is(err, f1.ErrInvalidPayload):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
