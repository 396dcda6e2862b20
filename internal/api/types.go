package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// City is a single row of the city search endpoint.
type City struct {
	ID   CityID `json:"id"`
	Name string `json:"lokasi"`
}

// CityID is the API's opaque city identifier. The API has sent it both as a
// JSON number and as a numeric string, so both are accepted.
type CityID int

// UnmarshalJSON accepts 1301 and "1301".
func (id *CityID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("empty city id")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid city id %s: %w", b, err)
	}
	*id = CityID(v)
	return nil
}

// Degrees is a coordinate in decimal degrees. Like CityID it is accepted
// as a JSON number or a numeric string. A missing value decodes to 0.
type Degrees float64

// UnmarshalJSON accepts -6.1805, "-6.1805", "" and null.
func (d *Degrees) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", b, err)
	}
	*d = Degrees(v)
	return nil
}

// envelope is the common shape of every myquran response.
// Data is kept raw because its shape differs per endpoint.
type envelope struct {
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// MonthlySchedule is the data payload of the monthly schedule endpoint.
type MonthlySchedule struct {
	ID        CityID      `json:"id"`
	Location  string      `json:"lokasi"`
	Region    string      `json:"daerah"`
	Coordinat Coordinates `json:"koordinat"`
	Days      []DayTimes  `json:"jadwal"`

	// Raw is the undecoded data payload, persisted verbatim by the cache.
	Raw json.RawMessage `json:"-"`
}

// Coordinates holds the numeric position and the human-readable labels
// ("6° 10' LS") the API sends alongside it.
type Coordinates struct {
	Lat       Degrees `json:"lat"`
	Lon       Degrees `json:"lon"`
	Latitude  string  `json:"lintang"`
	Longitude string  `json:"bujur"`
}

// DayTimes holds one calendar day of the schedule as HH:MM strings.
type DayTimes struct {
	Label   string `json:"tanggal"` // e.g. "Senin, 01/01/2024"
	Date    string `json:"date"`    // e.g. "2024-01-01"
	Imsak   string `json:"imsak"`
	Subuh   string `json:"subuh"`
	Terbit  string `json:"terbit"`
	Dhuha   string `json:"dhuha"`
	Dzuhur  string `json:"dzuhur"`
	Ashar   string `json:"ashar"`
	Maghrib string `json:"maghrib"`
	Isya    string `json:"isya"`
}

// DecodeMonthlySchedule parses a raw data payload, as stored by the cache.
func DecodeMonthlySchedule(raw []byte) (*MonthlySchedule, error) {
	var m MonthlySchedule
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	m.Raw = append(json.RawMessage(nil), raw...)
	return &m, nil
}
