package lumes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// sentinelNoEntry marks a cell for which the station reported nothing.
	sentinelNoEntry = "NE"
	// suppressedUnit is a timezone abbreviation the feed leaks into the
	// unit row; it is not a real unit and must never reach a datapoint.
	suppressedUnit = "MESZ"
	// timeMarkerPrefix introduces the time column of a measurement block.
	timeMarkerPrefix = "Zeit-"
)

var ErrMalformedRow = errors.New("malformed row")

// RowError reports where in the table a structural assumption broke.
// Row is the zero-based data-row index, Col the zero-based column index
// within that row (station column included).
type RowError struct {
	Row int
	Col int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Col, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ColumnSpec describes one data column of the table (station column
// excluded). A TimeMarker column starts a new measurement block named
// after the marker; other columns carry numeric readings.
type ColumnSpec struct {
	Name       string
	TimeMarker bool
	Type       string
	Unit       string
}

// BuildColumnSpecs derives the column specs from the three metadata rows.
// The station column (index 0) is dropped; type and unit rows may be
// shorter than the name row, missing entries count as empty.
func BuildColumnSpecs(names, types, units []string) []ColumnSpec {
	if len(names) == 0 {
		return nil
	}
	specs := make([]ColumnSpec, 0, len(names)-1)
	for i, name := range names[1:] {
		spec := ColumnSpec{Name: name}
		if strings.HasPrefix(name, timeMarkerPrefix) {
			spec.Name = strings.TrimPrefix(name, timeMarkerPrefix)
			spec.TimeMarker = true
		}
		if i+1 < len(types) {
			spec.Type = types[i+1]
		}
		if i+1 < len(units) {
			spec.Unit = units[i+1]
		}
		specs = append(specs, spec)
	}
	return specs
}

// ParserOptions tune the table parser.
type ParserOptions struct {
	// Location is the fixed timezone measurement times are parsed in.
	Location *time.Location

	// FlushTrailing emits the pending block left over after the last
	// row. The feed's historical consumers never saw that block (a
	// block is only finalized when the next time marker appears), so
	// this stays off unless explicitly enabled.
	FlushTrailing bool
}

// Parser folds data rows into datapoints in a single pass.
//
// It is a two-state machine. A time-marker column finalizes the pending
// datapoint, if any, and opens a new one; an "NE" cell discards the
// pending datapoint; a numeric cell adds a reading to it. The pending
// datapoint survives row boundaries: the block at the tail of a row is
// finalized by the first marker of the next row, still under the station
// it was opened with.
type Parser struct {
	specs []ColumnSpec
	opts  ParserOptions
}

func NewParser(specs []ColumnSpec, opts ParserOptions) *Parser {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Parser{specs: specs, opts: opts}
}

// ParseRows consumes all data rows and returns the finalized datapoints
// in encounter order. Any malformed cell fails the whole parse.
func (p *Parser) ParseRows(rows [][]string) ([]Datapoint, error) {
	var out []Datapoint
	var pending *Datapoint

	for rowIdx, row := range rows {
		if len(row) != len(p.specs)+1 {
			return nil, &RowError{Row: rowIdx, Col: len(row) - 1,
				Err: fmt.Errorf("%w: %d columns, expected %d", ErrMalformedRow, len(row), len(p.specs)+1)}
		}
		station := row[0]

		for i, spec := range p.specs {
			cell := row[i+1]

			switch {
			case spec.TimeMarker:
				if pending != nil {
					dp, err := finalize(pending)
					if err != nil {
						return nil, err
					}
					out = append(out, dp)
				}
				t, err := ParseMeasurementTime(cell, p.opts.Location)
				if err != nil {
					return nil, &RowError{Row: rowIdx, Col: i + 1, Err: err}
				}
				pending = &Datapoint{
					Station:  station,
					Name:     spec.Name,
					Time:     t,
					Readings: make(map[string]float64),
				}

			case cell == sentinelNoEntry:
				pending = nil

			case pending == nil:
				// A reading with no open block has nothing to attach
				// to; it is dropped like the rest of its block.

			default:
				v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
				if err != nil {
					return nil, &RowError{Row: rowIdx, Col: i + 1,
						Err: fmt.Errorf("%w: %q is not numeric", ErrMalformedRow, cell)}
				}
				pending.Readings[spec.Name] = v
				if spec.Type != "" {
					pending.Type = spec.Type
				}
				if spec.Unit != "" && spec.Unit != suppressedUnit {
					pending.Unit = spec.Unit
				}
			}
		}
	}

	if p.opts.FlushTrailing && pending != nil {
		dp, err := finalize(pending)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}

	return out, nil
}

func finalize(d *Datapoint) (Datapoint, error) {
	id, err := d.DeriveID()
	if err != nil {
		return Datapoint{}, err
	}
	d.ID = id
	return *d, nil
}
