package models

import (
	"fmt"
	"strconv"
)

// Location is a position in decimal degrees
type Location struct {
	Lat float32 `json:"lat"`
	Lng float32 `json:"lng"`
}

// Country is an entry of the reference country list
type Country struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// CapturedAt holds the capture date of a photo along with the raw timestamp
type CapturedAt struct {
	Timestamp string `json:"timestamp"`
	Year      uint16 `json:"year"`
	Month     uint8  `json:"month"`
	Day       uint8  `json:"day"`
}

// Valid reports whether the date was extracted
func (d CapturedAt) Valid() bool {
	return d.Year != 0 && d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

// PhotoRecord is the metadata extracted from a single photo file.
// Records are values: use the With* methods to derive a modified copy.
type PhotoRecord struct {
	Path     string     `json:"path"`
	Date     CapturedAt `json:"date"`
	Width    uint32     `json:"width"`
	Height   uint32     `json:"height"`
	Location *Location  `json:"location,omitempty"`
	Country  *Country   `json:"country,omitempty"`
	Preview  string     `json:"preview,omitempty"`
}

// WithCountry returns a copy of the record with its country set
func (r PhotoRecord) WithCountry(c Country) PhotoRecord {
	r.Country = &c
	return r
}

// WithPreview returns a copy of the record with its preview name set
func (r PhotoRecord) WithPreview(name string) PhotoRecord {
	r.Preview = name
	return r
}

// CountryName returns the resolved country name or an empty string
func (r PhotoRecord) CountryName() string {
	if r.Country == nil {
		return ""
	}
	return r.Country.Name
}

// ToMap converts the record to a flat map for object metadata
func (r PhotoRecord) ToMap() map[string]string {
	result := make(map[string]string)

	result["source-path"] = r.Path
	if r.Date.Timestamp != "" {
		result["timestamp"] = r.Date.Timestamp
	}
	if r.Date.Valid() {
		result["year"] = strconv.Itoa(int(r.Date.Year))
	}
	if r.Width != 0 || r.Height != 0 {
		result["width"] = strconv.FormatUint(uint64(r.Width), 10)
		result["height"] = strconv.FormatUint(uint64(r.Height), 10)
	}
	if r.Location != nil {
		result["geo-latitude"] = fmt.Sprintf("%f", r.Location.Lat)
		result["geo-longitude"] = fmt.Sprintf("%f", r.Location.Lng)
	}
	if r.Country != nil {
		result["country"] = r.Country.Name
	}

	return result
}
