// Package exiftest builds small JPEG files carrying EXIF tags, for tests
// that exercise the real decoder.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image/color"

	"github.com/disintegration/imaging"
)

// DMS is a coordinate as degrees, minutes and seconds
type DMS [3]uint32

// Photo describes the tags to embed. Zero values are left out.
type Photo struct {
	DateTime string
	Width    uint32
	Height   uint32
	LatRef   string
	Lat      *DMS
	LngRef   string
	Lng      *DMS
	// Make and MakerNote are written to IFD0 and the Exif IFD
	Make      string
	MakerNote []byte
}

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
	typeUndef    = 7

	tagMake         = 0x010f
	tagDateTime     = 0x0132
	tagMakerNote    = 0x927c
	tagExifIFD      = 0x8769
	tagGPSIFD       = 0x8825
	tagPixelX       = 0xa002
	tagPixelY       = 0xa003
	tagGPSLatRef    = 0x0001
	tagGPSLat       = 0x0002
	tagGPSLngRef    = 0x0003
	tagGPSLng       = 0x0004
	ifdEntrySize    = 12
	tiffHeaderSize  = 8
	jpegSOI         = "\xff\xd8"
	jpegAPP1        = "\xff\xe1"
	exifHeaderMagic = "Exif\x00\x00"
)

var order = binary.LittleEndian

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rationals(tag uint16, d DMS) entry {
	b := make([]byte, 0, 24)
	for _, v := range d {
		b = order.AppendUint32(b, v)
		b = order.AppendUint32(b, 1)
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: b}
}

// ifdSize is the size of an IFD including its out-of-line data
func ifdSize(entries []entry) int {
	n := 2 + ifdEntrySize*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			n += len(e.data)
		}
	}
	return n
}

// writeIFD appends an IFD that starts at offset
func writeIFD(buf *bytes.Buffer, offset int, entries []entry) {
	dataOffset := offset + 2 + ifdEntrySize*len(entries) + 4
	var data []byte

	_ = binary.Write(buf, order, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, order, e.tag)
		_ = binary.Write(buf, order, e.typ)
		_ = binary.Write(buf, order, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			buf.Write(inline)
			continue
		}
		_ = binary.Write(buf, order, uint32(dataOffset+len(data)))
		data = append(data, e.data...)
	}
	_ = binary.Write(buf, order, uint32(0))
	buf.Write(data)
}

// TIFF returns the little-endian TIFF block holding the tags of p
func TIFF(p Photo) []byte {
	var ifd0, exifIFD, gpsIFD []entry

	if p.Make != "" {
		ifd0 = append(ifd0, ascii(tagMake, p.Make))
	}
	if p.DateTime != "" {
		ifd0 = append(ifd0, ascii(tagDateTime, p.DateTime))
	}
	if p.MakerNote != nil {
		exifIFD = append(exifIFD, entry{tag: tagMakerNote, typ: typeUndef, count: uint32(len(p.MakerNote)), data: p.MakerNote})
	}
	if p.Width > 0 {
		exifIFD = append(exifIFD, long(tagPixelX, p.Width))
	}
	if p.Height > 0 {
		exifIFD = append(exifIFD, long(tagPixelY, p.Height))
	}
	if p.LatRef != "" {
		gpsIFD = append(gpsIFD, ascii(tagGPSLatRef, p.LatRef))
	}
	if p.Lat != nil {
		gpsIFD = append(gpsIFD, rationals(tagGPSLat, *p.Lat))
	}
	if p.LngRef != "" {
		gpsIFD = append(gpsIFD, ascii(tagGPSLngRef, p.LngRef))
	}
	if p.Lng != nil {
		gpsIFD = append(gpsIFD, rationals(tagGPSLng, *p.Lng))
	}

	// Pointers are appended in tag order after the IFD0 tags, so their
	// sizes are known before the sub-IFD offsets are.
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, long(tagExifIFD, 0))
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, long(tagGPSIFD, 0))
	}

	exifOffset := tiffHeaderSize + ifdSize(ifd0)
	gpsOffset := exifOffset
	if len(exifIFD) > 0 {
		gpsOffset += ifdSize(exifIFD)
	}
	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifIFD:
			order.PutUint32(ifd0[i].data, uint32(exifOffset))
		case tagGPSIFD:
			order.PutUint32(ifd0[i].data, uint32(gpsOffset))
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, order, uint16(42))
	_ = binary.Write(&buf, order, uint32(tiffHeaderSize))
	writeIFD(&buf, tiffHeaderSize, ifd0)
	if len(exifIFD) > 0 {
		writeIFD(&buf, exifOffset, exifIFD)
	}
	if len(gpsIFD) > 0 {
		writeIFD(&buf, gpsOffset, gpsIFD)
	}
	return buf.Bytes()
}

// JPEG returns a decodable 8x4 JPEG whose APP1 segment holds the tags of p
func JPEG(p Photo) ([]byte, error) {
	var img bytes.Buffer
	if err := imaging.Encode(&img, imaging.New(8, 4, color.Gray{Y: 128}), imaging.JPEG); err != nil {
		return nil, err
	}

	payload := append([]byte(exifHeaderMagic), TIFF(p)...)

	var out bytes.Buffer
	out.WriteString(jpegSOI)
	out.WriteString(jpegAPP1)
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(img.Bytes()[len(jpegSOI):])
	return out.Bytes(), nil
}
