package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/bstardust/photo-atlas/internal/exif"
	"github.com/bstardust/photo-atlas/internal/geo"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
)

// exifTimeLayout is the EXIF DateTime format
const exifTimeLayout = "2006:01:02 15:04:05"

// DatePolicy decides what happens when the DateTime tag is unusable
type DatePolicy int

const (
	// DatePermissive leaves the date blank
	DatePermissive DatePolicy = iota
	// DateStrict fails the record with an ExtractionError
	DateStrict
)

// Extractor turns decoded EXIF fields into photo records
type Extractor struct {
	datePolicy DatePolicy
}

// NewExtractor creates a new metadata extractor
func NewExtractor(policy DatePolicy) *Extractor {
	return &Extractor{
		datePolicy: policy,
	}
}

// Extract builds the record for path. The country is left unset.
func (e *Extractor) Extract(path string, fields exif.Fields) (models.PhotoRecord, error) {
	record := models.PhotoRecord{Path: path}

	date, err := e.extractDate(fields)
	if err != nil {
		return models.PhotoRecord{}, err
	}
	record.Date = date

	record.Width = dimension(fields, exif.PixelXDimension)
	record.Height = dimension(fields, exif.PixelYDimension)

	location, err := extractLocation(fields)
	if err != nil {
		return models.PhotoRecord{}, err
	}
	record.Location = location

	return record, nil
}

func (e *Extractor) extractDate(fields exif.Fields) (models.CapturedAt, error) {
	v, ok := fields.Get(exif.DateTime)
	if !ok {
		if e.datePolicy == DateStrict {
			return models.CapturedAt{}, common.NewMissingFieldError(string(exif.DateTime))
		}
		return models.CapturedAt{}, nil
	}

	raw := strings.TrimRight(v.Str, "\x00 ")
	if v.Kind != exif.KindASCII {
		return e.malformedDate(raw, "not an ASCII value")
	}

	t, err := time.Parse(exifTimeLayout, raw)
	if err != nil {
		return e.malformedDate(raw, err.Error())
	}
	if t.Year() < 1 || t.Year() > 65535 {
		return e.malformedDate(raw, "year out of range")
	}

	return models.CapturedAt{
		Timestamp: raw,
		Year:      uint16(t.Year()),
		Month:     uint8(t.Month()),
		Day:       uint8(t.Day()),
	}, nil
}

// malformedDate keeps the raw string under the permissive policy so the
// catalog still shows what the camera wrote.
func (e *Extractor) malformedDate(raw, reason string) (models.CapturedAt, error) {
	if e.datePolicy == DateStrict {
		return models.CapturedAt{}, common.NewMalformedFieldError(string(exif.DateTime), reason)
	}
	return models.CapturedAt{Timestamp: raw}, nil
}

func dimension(fields exif.Fields, name exif.FieldName) uint32 {
	v, ok := fields.Get(name)
	if !ok || v.Kind != exif.KindInt || len(v.Ints) == 0 {
		return 0
	}
	if v.Ints[0] < 0 || v.Ints[0] > int64(^uint32(0)) {
		return 0
	}
	return uint32(v.Ints[0])
}

func extractLocation(fields exif.Fields) (*models.Location, error) {
	latVal, hasLat := fields.Get(exif.GPSLatitude)
	lngVal, hasLng := fields.Get(exif.GPSLongitude)
	if !hasLat || !hasLng {
		return nil, nil
	}

	lat, err := coordinate(exif.GPSLatitude, latVal, hemisphere(fields, exif.GPSLatitudeRef, "S"))
	if err != nil {
		return nil, err
	}
	lng, err := coordinate(exif.GPSLongitude, lngVal, hemisphere(fields, exif.GPSLongitudeRef, "W"))
	if err != nil {
		return nil, err
	}

	return &models.Location{Lat: float32(lat), Lng: float32(lng)}, nil
}

// hemisphere reports whether the reference tag selects the negative
// hemisphere. A missing reference means positive.
func hemisphere(fields exif.Fields, ref exif.FieldName, negative string) bool {
	v, ok := fields.Get(ref)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(strings.TrimRight(v.Str, "\x00")), negative)
}

func coordinate(name exif.FieldName, v exif.Value, negative bool) (float64, error) {
	if v.Kind != exif.KindRational || len(v.Rats) < 3 {
		return 0, common.NewMalformedFieldError(string(name), "expected three rational values")
	}

	var parts [3]float64
	for i := range parts {
		f, ok := v.Rats[i].Float()
		if !ok {
			return 0, common.NewMalformedFieldError(string(name), fmt.Sprintf("zero denominator in component %d", i))
		}
		parts[i] = f
	}

	return geo.ToDecimalDegrees(parts[0], parts[1], parts[2], negative), nil
}
