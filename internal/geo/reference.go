package geo

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
)

//go:embed countries.json
var defaultCountries []byte

type countryEntry struct {
	Name string  `json:"name"`
	Lat  float32 `json:"lat"`
	Lng  float32 `json:"lng"`
}

// LoadCountries reads the reference country list. An empty path selects the
// built-in list; otherwise the format follows the file extension (.json or
// .csv).
func LoadCountries(path string) ([]models.Country, error) {
	if path == "" {
		return ParseCountriesJSON(bytes.NewReader(defaultCountries))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewIOError("open", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseCountriesJSON(f)
	case ".csv":
		return ParseCountriesCSV(f)
	default:
		return nil, common.NewConfigError(fmt.Sprintf("unsupported country list format %q", path), nil)
	}
}

// ParseCountriesJSON parses an array of {"name","lat","lng"} objects
func ParseCountriesJSON(r io.Reader) ([]models.Country, error) {
	var entries []countryEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, common.NewConfigError("failed to decode country list", err)
	}

	countries := make([]models.Country, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, common.NewConfigError(fmt.Sprintf("country entry %d has no name", i), nil)
		}
		countries = append(countries, models.Country{
			Name:     e.Name,
			Location: models.Location{Lat: e.Lat, Lng: e.Lng},
		})
	}

	if len(countries) == 0 {
		return nil, common.NewConfigError("country list is empty", nil)
	}
	return countries, nil
}

// ParseCountriesCSV parses name,lat,lng rows. A first row whose coordinates
// are not numeric is treated as a header.
func ParseCountriesCSV(r io.Reader) ([]models.Country, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, common.NewConfigError("failed to read country list", err)
	}

	countries := make([]models.Country, 0, len(rows))
	for i, row := range rows {
		lat, latErr := strconv.ParseFloat(row[1], 32)
		lng, lngErr := strconv.ParseFloat(row[2], 32)
		if latErr != nil || lngErr != nil {
			if i == 0 {
				continue
			}
			return nil, common.NewConfigError(fmt.Sprintf("invalid coordinates on line %d", i+1), nil)
		}
		if row[0] == "" {
			return nil, common.NewConfigError(fmt.Sprintf("missing country name on line %d", i+1), nil)
		}
		countries = append(countries, models.Country{
			Name:     row[0],
			Location: models.Location{Lat: float32(lat), Lng: float32(lng)},
		})
	}

	if len(countries) == 0 {
		return nil, common.NewConfigError("country list is empty", nil)
	}
	return countries, nil
}
