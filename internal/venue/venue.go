// Package venue describes the single auditorium configuration the booking
// flow runs against: locations, showtimes, the fixed seat layout, the seat
// price, the food menu and the bookable date window.  The configuration is
// static; it ships embedded and can be replaced by a YAML file at startup.
package venue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed venue.yaml
var defaultYAML []byte

// Row is one row of seats.  Seat labels are Row followed by 1..Seats.
type Row struct {
	Label string `yaml:"row" json:"row"`
	Seats int    `yaml:"seats" json:"seats"`
}

// MenuItem is a food item on sale with its price.
type MenuItem struct {
	Name       string `yaml:"name" json:"name"`
	PriceCents int64  `yaml:"price_cents" json:"price_cents"`
}

// Venue is the parsed configuration.
type Venue struct {
	Locations      []string   `yaml:"locations" json:"locations"`
	Showtimes      []string   `yaml:"showtimes" json:"showtimes"`
	SeatPriceCents int64      `yaml:"seat_price_cents" json:"seat_price_cents"`
	WindowDays     int        `yaml:"booking_window_days" json:"booking_window_days"`
	Layout         []Row      `yaml:"layout" json:"layout"`
	Food           []MenuItem `yaml:"food" json:"food"`

	seats map[string]struct{}
	menu  map[string]MenuItem
}

// DateOption is a selectable showing date.  Display matches the picker
// format ("MON, 05/08"), Value is YYYY-MM-DD.
type DateOption struct {
	Display string `json:"display"`
	Value   string `json:"value"`
}

// Default returns the embedded venue configuration.
func Default() (*Venue, error) {
	return Parse(defaultYAML)
}

// Load reads a venue file from disk.  An empty path yields Default().
func Load(path string) (*Venue, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue file: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a venue document.
func Parse(b []byte) (*Venue, error) {
	var v Venue
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode venue: %w", err)
	}
	if err := v.index(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Venue) index() error {
	if len(v.Locations) == 0 || len(v.Showtimes) == 0 || len(v.Layout) == 0 {
		return errors.New("venue: locations, showtimes and layout are required")
	}
	if v.SeatPriceCents <= 0 {
		return errors.New("venue: seat_price_cents must be positive")
	}
	if v.WindowDays <= 0 {
		v.WindowDays = 7
	}
	v.seats = make(map[string]struct{})
	for i, r := range v.Layout {
		label := strings.TrimSpace(r.Label)
		if label == "" || r.Seats <= 0 {
			return fmt.Errorf("venue: invalid row %q", r.Label)
		}
		v.Layout[i].Label = label
		for n := 1; n <= r.Seats; n++ {
			v.seats[label+strconv.Itoa(n)] = struct{}{}
		}
	}
	v.menu = make(map[string]MenuItem, len(v.Food))
	for _, f := range v.Food {
		if f.Name == "" || f.PriceCents < 0 {
			return fmt.Errorf("venue: invalid food item %q", f.Name)
		}
		v.menu[f.Name] = f
	}
	return nil
}

// SeatLabels returns every seat label in layout order.
func (v *Venue) SeatLabels() []string {
	out := make([]string, 0, len(v.seats))
	for _, r := range v.Layout {
		for n := 1; n <= r.Seats; n++ {
			out = append(out, r.Label+strconv.Itoa(n))
		}
	}
	return out
}

// IsSeat reports whether label exists in the layout.
func (v *Venue) IsSeat(label string) bool {
	_, ok := v.seats[label]
	return ok
}

// HasLocation reports whether loc is one of the configured locations.
func (v *Venue) HasLocation(loc string) bool { return contains(v.Locations, loc) }

// HasShowtime reports whether t is one of the configured showtimes.
func (v *Venue) HasShowtime(t string) bool { return contains(v.Showtimes, t) }

// MenuItem looks up a food item by exact name.
func (v *Venue) MenuItem(name string) (MenuItem, bool) {
	m, ok := v.menu[name]
	return m, ok
}

// Dates returns the bookable dates starting at now's calendar day.
func (v *Venue) Dates(now time.Time) []DateOption {
	out := make([]DateOption, 0, v.WindowDays)
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	for i := 0; i < v.WindowDays; i++ {
		day := start.AddDate(0, 0, i)
		out = append(out, DateOption{
			Display: strings.ToUpper(day.Format("Mon")) + ", " + day.Format("02/01"),
			Value:   day.Format("2006-01-02"),
		})
	}
	return out
}

// IsBookableDate reports whether value (YYYY-MM-DD) lies in the window
// that starts on now's calendar day.
func (v *Venue) IsBookableDate(value string, now time.Time) bool {
	for _, d := range v.Dates(now) {
		if d.Value == value {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
