// internal/exif/exif.go
package exif

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

// FieldName is the name of an EXIF tag
type FieldName = exif.FieldName

// Tags read by the metadata extractor
const (
	DateTime        = exif.DateTime
	PixelXDimension = exif.PixelXDimension
	PixelYDimension = exif.PixelYDimension
	GPSLatitude     = exif.GPSLatitude
	GPSLatitudeRef  = exif.GPSLatitudeRef
	GPSLongitude    = exif.GPSLongitude
	GPSLongitudeRef = exif.GPSLongitudeRef
)

// thumbnailFields are the tags goexif reads from IFD1, the thumbnail IFD
var thumbnailFields = map[FieldName]bool{
	exif.ThumbJPEGInterchangeFormat:       true,
	exif.ThumbJPEGInterchangeFormatLength: true,
}

// Kind is the interpreted format of a tag value
type Kind int

const (
	KindUndefined Kind = iota
	KindASCII
	KindInt
	KindRational
	KindFloat
)

// Rational is an unsigned or signed EXIF fraction
type Rational struct {
	Num int64
	Den int64
}

// Float returns the fraction as a float and false for a zero denominator
func (r Rational) Float() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// Value is one decoded tag
type Value struct {
	Kind    Kind
	Type    tiff.DataType
	Str     string
	Ints    []int64
	Rats    []Rational
	Floats  []float64
	Raw     []byte
	Display string
	// Thumbnail is set for tags read from the thumbnail IFD
	Thumbnail bool
}

// ASCII returns a tag value holding a string
func ASCII(s string) Value {
	return Value{Kind: KindASCII, Type: tiff.DTAscii, Str: s, Raw: []byte(s), Display: fmt.Sprintf("%q", s)}
}

// Ints returns a tag value holding integers
func Ints(v ...int64) Value {
	return Value{Kind: KindInt, Type: tiff.DTLong, Ints: v, Display: fmt.Sprint(v)}
}

// Rationals returns a tag value holding fractions
func Rationals(v ...Rational) Value {
	return Value{Kind: KindRational, Type: tiff.DTRational, Rats: v, Display: fmt.Sprint(v)}
}

// Fields is the set of tags decoded from one file
type Fields map[FieldName]Value

// Get returns the tag value and whether it was present
func (f Fields) Get(name FieldName) (Value, bool) {
	v, ok := f[name]
	return v, ok
}

// Names returns the tag names in lexical order
func (f Fields) Names() []FieldName {
	names := make([]FieldName, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

type collector Fields

func (c collector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	v := valueOf(tag)
	v.Thumbnail = thumbnailFields[name]
	c[name] = v
	return nil
}

// Decode reads the EXIF container from r and returns every standard tag it
// holds. Any decoder failure, including a panic on a corrupt file, is
// reported as a DecodeError for path.
func Decode(r io.Reader, path string) (Fields, error) {
	return decode(r, path, false)
}

// DecodeAll is Decode plus the Canon and Nikon maker-note tags. A maker
// note that fails to parse is left out; the standard tags are still
// returned.
func DecodeAll(r io.Reader, path string) (Fields, error) {
	return decode(r, path, true)
}

func decode(r io.Reader, path string, makerNotes bool) (fields Fields, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fields = nil
			err = common.NewDecodeError(path, fmt.Errorf("panic while decoding: %v", rec))
		}
	}()

	x, err := exif.Decode(r)
	if err != nil {
		return nil, common.NewDecodeError(path, err)
	}

	if makerNotes {
		for _, p := range mknote.All {
			if err := parseMakerNote(p, x); err != nil {
				logger.Debug("Skipping maker note of %s: %v", path, err)
			}
		}
	}

	fields = make(Fields)
	if err := x.Walk(collector(fields)); err != nil {
		return nil, common.NewDecodeError(path, err)
	}

	return fields, nil
}

// parseMakerNote runs one maker-note parser, turning its panics into errors
func parseMakerNote(p exif.Parser, x *exif.Exif) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in maker note parser: %v", rec)
		}
	}()
	return p.Parse(x)
}

func valueOf(tag *tiff.Tag) Value {
	v := Value{
		Type:    tag.Type,
		Raw:     tag.Val,
		Display: tag.String(),
	}

	n := int(tag.Count)
	switch tag.Format() {
	case tiff.StringVal:
		v.Kind = KindASCII
		v.Str, _ = tag.StringVal()
	case tiff.IntVal:
		v.Kind = KindInt
		for i := 0; i < n; i++ {
			iv, err := tag.Int64(i)
			if err != nil {
				break
			}
			v.Ints = append(v.Ints, iv)
		}
	case tiff.RatVal:
		v.Kind = KindRational
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			v.Rats = append(v.Rats, Rational{Num: num, Den: den})
		}
	case tiff.FloatVal:
		v.Kind = KindFloat
		for i := 0; i < n; i++ {
			fv, err := tag.Float(i)
			if err != nil {
				break
			}
			v.Floats = append(v.Floats, fv)
		}
	default:
		v.Kind = KindUndefined
	}

	return v
}

// Escape renders raw ASCII bytes with quotes, backslashes and
// non-printable bytes escaped.
func Escape(raw []byte) string {
	var sb strings.Builder
	for _, c := range raw {
		switch {
		case c == '\\' || c == '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x20 && c <= 0x7e:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\x%02x", c)
		}
	}
	return sb.String()
}

// RawString formats the raw value the way the dump command prints it
func (v Value) RawString() string {
	switch v.Kind {
	case KindASCII:
		// NUL separates the strings of a multi-string value and ends the last
		raw := bytes.TrimSuffix(v.Raw, []byte{0})
		parts := bytes.Split(raw, []byte{0})
		quoted := make([]string, len(parts))
		for i, p := range parts {
			quoted[i] = `"` + Escape(p) + `"`
		}
		return fmt.Sprintf("Ascii([%s])", strings.Join(quoted, ", "))
	case KindInt:
		return fmt.Sprintf("Int(%v)", v.Ints)
	case KindRational:
		parts := make([]string, len(v.Rats))
		for i, r := range v.Rats {
			parts[i] = fmt.Sprintf("%d/%d", r.Num, r.Den)
		}
		return fmt.Sprintf("Rational([%s])", strings.Join(parts, ", "))
	case KindFloat:
		return fmt.Sprintf("Float(%v)", v.Floats)
	default:
		return fmt.Sprintf("Undefined(% x)", v.Raw)
	}
}
