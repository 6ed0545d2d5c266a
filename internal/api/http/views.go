package httpapi

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"github.com/i474232898/pitbuddy/internal/f1"
)

//go:embed templates
var templatesFS embed.FS

const layout = "layouts/main"

// NewViews returns the page template engine. Dates are displayed in loc.
func NewViews(loc *time.Location) *html.Engine {
	if loc == nil {
		loc = time.UTC
	}
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(map[string]interface{}{
		"longDate": func(t time.Time) string {
			return t.In(loc).Format("Monday, January 2, 2006")
		},
		"shortDate": func(t time.Time) string {
			return t.In(loc).Format("Jan 2")
		},
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("15:04:05")
		},
		"points": func(d decimal.Decimal) string {
			return d.String() + " pts"
		},
		"lapTime":  formatLapTime,
		"sector":   formatSector,
		"speed":    formatSpeed,
		"teamName": teamName,
		"acronym":  acronym,
	})
	return engine
}

// formatLapTime renders seconds as m:ss.mmm.
func formatLapTime(v *float64) string {
	if v == nil {
		return "-"
	}
	d := time.Duration(*v * float64(time.Second)).Round(time.Millisecond)
	m := int(d / time.Minute)
	s := float64(d%time.Minute) / float64(time.Second)
	return fmt.Sprintf("%d:%06.3f", m, s)
}

func formatSector(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func formatSpeed(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d km/h", *v)
}

func teamName(drivers map[int]f1.Driver, number int) string {
	if d, ok := drivers[number]; ok {
		return d.TeamName
	}
	return ""
}

func acronym(drivers map[int]f1.Driver, number int) string {
	if d, ok := drivers[number]; ok && d.NameAcronym != "" {
		return d.NameAcronym
	}
	return fmt.Sprintf("#%d", number)
}
