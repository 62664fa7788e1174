package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// sniffLength bounds how much of a file is inspected for binary detection.
const sniffLength = 8000

const timestampLayout = "2006-01-02 15:04"

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// IsBinary reports whether data looks like binary content: invalid UTF-8 or a NUL byte.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return !utf8.Valid(data) || strings.IndexByte(string(data), 0) >= 0
}

// Preview is the leading portion of a file prepared for read-only display.
type Preview struct {
	Text      string
	IsBinary  bool
	Truncated bool
	SizeBytes int64
}

// ReadPreview reads at most limit bytes of the file at path. Binary files yield an
// empty Text with IsBinary set.
//
// #nosec G304
func ReadPreview(path string, limit int) (Preview, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return Preview{}, fmt.Errorf("open %s: %w", path, openError)
	}
	defer fileHandle.Close()

	info, statError := fileHandle.Stat()
	if statError != nil {
		return Preview{}, fmt.Errorf("stat %s: %w", path, statError)
	}
	if limit <= 0 {
		limit = sniffLength
	}
	buffer := make([]byte, limit)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return Preview{}, fmt.Errorf("read %s: %w", path, readError)
	}
	data := buffer[:bytesRead]
	preview := Preview{SizeBytes: info.Size(), Truncated: info.Size() > int64(bytesRead)}
	if IsBinary(trimPartialRune(leading(data, sniffLength))) {
		preview.IsBinary = true
		return preview, nil
	}
	preview.Text = string(trimPartialRune(data))
	return preview, nil
}

func leading(data []byte, length int) []byte {
	if len(data) > length {
		return data[:length]
	}
	return data
}

// trimPartialRune drops a multi-byte rune cut off at the end of data.
func trimPartialRune(data []byte) []byte {
	for dropped := 0; dropped < utf8.UTFMax-1 && len(data) > 0 && !utf8.Valid(data); dropped++ {
		data = data[:len(data)-1]
	}
	return data
}

// FormatFileSize renders a byte count with a lower-case binary unit, e.g. 1.5kb.
func FormatFileSize(byteCount int64) string {
	if byteCount <= 0 {
		return "0b"
	}
	scaled := float64(byteCount)
	unit := 0
	for ; scaled >= 1024 && unit < len(sizeUnits)-1; unit++ {
		scaled /= 1024
	}
	switch {
	case unit == 0:
		return fmt.Sprintf("%d%s", byteCount, sizeUnits[0])
	case scaled < 10:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", scaled), ".0") + sizeUnits[unit]
	default:
		return fmt.Sprintf("%.0f%s", scaled, sizeUnits[unit])
	}
}

// FormatTimestamp renders value in the local zone with minute precision. The zero
// time renders as an empty string.
func FormatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format(timestampLayout)
}
