package lumes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

var ErrTruncatedFile = errors.New("file is missing its header block")

// RawFile is the decoded feed split into its fixed parts: the publish
// timestamp from line one, the three metadata rows (column names,
// measurement types, units) and the remaining data rows.
type RawFile struct {
	PublishedAt time.Time
	Names       []string
	Types       []string
	Units       []string
	DataRows    [][]string
}

// DecodeLatin1 converts the feed payload from ISO-8859-1 to UTF-8. The
// source serves unit symbols like µg/m³ and °C in the legacy charset.
func DecodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode ISO-8859-1 payload: %w", err)
	}
	return string(out), nil
}

// SplitFile separates the decoded content into the publish timestamp, the
// three metadata rows and the data rows.
//
// The first line looks like "Lumes;v2.10;29.09.17-10:30:00"; its last
// field carries the publish time. The first cell of the name row is blank
// in the feed and is rewritten to "NAME" so the station column has a
// label.
func SplitFile(content string, loc *time.Location) (*RawFile, error) {
	lines := splitLines(content)
	if len(lines) < 4 {
		return nil, fmt.Errorf("%w: got %d lines", ErrTruncatedFile, len(lines))
	}

	stamp := lines[0]
	if i := strings.LastIndex(stamp, ";"); i >= 0 {
		stamp = stamp[i+1:]
	}
	publishedAt, err := ParsePublishTime(stamp, loc)
	if err != nil {
		return nil, err
	}

	names := strings.Split(lines[1], ";")
	names[0] = "NAME"
	types := strings.Split(lines[2], ";")
	units := strings.Split(lines[3], ";")

	rows := make([][]string, 0, len(lines)-4)
	for i, line := range lines[4:] {
		if line == "" {
			continue
		}
		row := strings.Split(line, ";")
		if len(row) != len(names) {
			return nil, &RowError{Row: i, Col: len(row) - 1,
				Err: fmt.Errorf("%w: %d columns, name row has %d", ErrMalformedRow, len(row), len(names))}
		}
		rows = append(rows, row)
	}

	return &RawFile{
		PublishedAt: publishedAt,
		Names:       names,
		Types:       types,
		Units:       units,
		DataRows:    rows,
	}, nil
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
