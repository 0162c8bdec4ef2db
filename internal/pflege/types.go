package pflege

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pfleger is a care-staff account. The password hash never leaves the service.
type Pfleger struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Admin        bool   `json:"admin"`
	PasswordHash string `json:"-"`
}

// Protokoll is a per-patient daily fluid-intake log. The pair (patient, datum)
// is unique system-wide.
type Protokoll struct {
	ID            string    `json:"id"`
	Patient       string    `json:"patient"`
	Datum         Datum     `json:"datum"`
	Public        bool      `json:"public"`
	Closed        bool      `json:"closed"`
	Ersteller     string    `json:"ersteller"`
	ErstellerName string    `json:"erstellerName,omitempty"`
	GesamtMenge   int       `json:"gesamtMenge"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Eintrag is a single beverage-intake record inside a Protokoll. Ersteller and
// Protokoll are fixed at creation time; updates touch only Getraenk, Menge and
// Kommentar.
type Eintrag struct {
	ID            string    `json:"id"`
	Getraenk      string    `json:"getraenk"`
	Menge         int       `json:"menge"`
	Kommentar     string    `json:"kommentar,omitempty"`
	Ersteller     string    `json:"ersteller"`
	ErstellerName string    `json:"erstellerName,omitempty"`
	Protokoll     string    `json:"protokoll"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Viewer identifies the caller for policy decisions. The zero Viewer is a
// guest (no valid session token).
type Viewer struct {
	ID    string
	Admin bool
}

// Guest reports whether the viewer carries no authenticated identity.
func (v Viewer) Guest() bool { return v.ID == "" }

const datumLayout = "02.01.2006"

// Datum is a calendar date serialized as DD.MM.YYYY.
type Datum struct {
	time.Time
}

// ParseDatum parses a DD.MM.YYYY value.
func ParseDatum(s string) (Datum, error) {
	t, err := time.Parse(datumLayout, strings.TrimSpace(s))
	if err != nil {
		return Datum{}, fmt.Errorf("%w: datum must be formatted as DD.MM.YYYY", ErrInvalidInput)
	}
	return Datum{Time: t}, nil
}

func (d Datum) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(datumLayout)
}

// Equal compares calendar days, ignoring the time of day.
func (d Datum) Equal(other Datum) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Datum) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Datum) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*d = Datum{}
		return nil
	}
	parsed, err := ParseDatum(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so a Datum persists as a SQL date.
func (d Datum) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Datum) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Datum{}
		return nil
	case time.Time:
		*d = Datum{Time: v}
		return nil
	case string:
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return err
		}
		*d = Datum{Time: parsed}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Datum", src)
	}
}

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAuthenticated = errors.New("authentication required")
	ErrConflict         = errors.New("resource conflict")
	ErrClosed           = errors.New("protokoll is closed")
	ErrSelfDelete       = errors.New("cannot delete own account")
	ErrInvalidInput     = errors.New("invalid input")
)
