package testsupport

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

const quickTimeEpochOffset = 2082844800

// ExifBlob returns a little-endian TIFF structure whose Exif IFD carries
// DateTimeOriginal = dateTimeOriginal. An empty value yields IFD0 only.
func ExifBlob(dateTimeOriginal string) []byte {
	return exifBlob(dateTimeOriginal, 0)
}

// ExifBlobBrokenGPS is ExifBlob with a GPS IFD pointer aimed past the end of
// the data, as written by some phone firmware. The date stays readable.
func ExifBlobBrokenGPS(dateTimeOriginal string) []byte {
	return exifBlob(dateTimeOriginal, 0xFFFF)
}

func exifBlob(dateTimeOriginal string, gpsOffset uint32) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	put16 := func(v uint16) { _ = binary.Write(&buf, le, v) }
	put32 := func(v uint32) { _ = binary.Write(&buf, le, v) }
	entry := func(tag, typ uint16, count, value uint32) {
		put16(tag)
		put16(typ)
		put32(count)
		put32(value)
	}

	buf.WriteString("II")
	put16(42)
	put32(8)

	if dateTimeOriginal == "" {
		// IFD0: Orientation = 1 (SHORT, left-justified in the value field).
		put16(1)
		entry(0x0112, 3, 1, 1)
		put32(0)
		return buf.Bytes()
	}

	ifd0Entries := uint32(1)
	if gpsOffset != 0 {
		ifd0Entries++
	}
	value := append([]byte(dateTimeOriginal), 0)
	exifIFDOffset := 8 + 2 + 12*ifd0Entries + 4
	valueOffset := exifIFDOffset + 2 + 12 + 4

	// IFD0: ExifIFDPointer, then GPSInfoIFDPointer (tags ascend).
	put16(uint16(ifd0Entries))
	entry(0x8769, 4, 1, exifIFDOffset)
	if gpsOffset != 0 {
		entry(0x8825, 4, 1, gpsOffset)
	}
	put32(0)

	// Exif IFD: DateTimeOriginal (ASCII, stored at valueOffset).
	put16(1)
	entry(0x9003, 2, uint32(len(value)), valueOffset)
	put32(0)

	buf.Write(value)
	return buf.Bytes()
}

// ExifJPEG returns a minimal JPEG stream with an APP1 Exif segment.
func ExifJPEG(dateTimeOriginal string) []byte {
	return JPEGWithExif(ExifBlob(dateTimeOriginal))
}

// JPEGWithExif wraps a TIFF blob in an APP1 Exif segment.
func JPEGWithExif(tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// WriteExifJPEG writes a JPEG whose DateTimeOriginal is dateTimeOriginal
// (EXIF layout "2006:01:02 15:04:05").
func WriteExifJPEG(t testing.TB, path, dateTimeOriginal string) {
	t.Helper()
	WriteBytes(t, path, ExifJPEG(dateTimeOriginal))
}

// WritePlainJPEG writes a JPEG without any APP1 segment.
func WritePlainJPEG(t testing.TB, path string) {
	t.Helper()
	WriteBytes(t, path, []byte{0xFF, 0xD8, 0xFF, 0xD9})
}

// MP4 returns an ftyp+moov stream whose mvhd (version 0) records created.
// A zero created time writes an unset (0) creation field.
func MP4(created time.Time) []byte {
	var creation uint32
	if !created.IsZero() {
		creation = uint32(created.Unix() + quickTimeEpochOffset)
	}

	var mvhd bytes.Buffer
	be := binary.BigEndian
	put32 := func(v uint32) { _ = binary.Write(&mvhd, be, v) }
	put32(108)
	mvhd.WriteString("mvhd")
	put32(0) // version 0, flags 0
	put32(creation)
	put32(creation)
	put32(1000)
	put32(3000)
	put32(0x00010000)
	_ = binary.Write(&mvhd, be, uint16(0x0100))
	_ = binary.Write(&mvhd, be, uint16(0))
	put32(0)
	put32(0)
	for _, v := range []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000} {
		put32(v)
	}
	for i := 0; i < 6; i++ {
		put32(0)
	}
	put32(2)

	var out bytes.Buffer
	_ = binary.Write(&out, be, uint32(20))
	out.WriteString("ftypisom")
	_ = binary.Write(&out, be, uint32(0))
	out.WriteString("isom")
	_ = binary.Write(&out, be, uint32(8+mvhd.Len()))
	out.WriteString("moov")
	out.Write(mvhd.Bytes())
	return out.Bytes()
}

// WriteMP4 writes an MP4/MOV container created at the given instant.
func WriteMP4(t testing.TB, path string, created time.Time) {
	t.Helper()
	WriteBytes(t, path, MP4(created))
}
