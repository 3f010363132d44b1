// Package googlecharts encodes plot data in the DataTable JSON
// format understood by the Google Charts visualization library.
package googlecharts

import (
	"math"

	errgo "gopkg.in/errgo.v1"
)

// DataTable holds the contents of a data table. When marshaled as JSON,
// it is suitable for passing to google.visualization.DataTable.
type DataTable struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

type Column struct {
	Type    DataType `json:"type"`
	Id      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

type Row struct {
	Cells      []Cell                 `json:"c"`
	Properties map[string]interface{} `json:"p,omitempty"`
}

// Cell holds a single table value. A nil Value marshals
// as an empty cell, which the charts treat as a gap.
type Cell struct {
	Value      interface{}            `json:"v,omitempty"`
	Format     string                 `json:"f,omitempty"`
	Properties map[string]interface{} `json:"p,omitempty"`
}

type DataType string

const (
	TBool      DataType = "boolean"
	TNumber    DataType = "number"
	TString    DataType = "string"
	TDate      DataType = "date"
	TDatetime  DataType = "datetime"
	TTimeofday DataType = "timeofday"
)

// Series holds one line of a line chart.
type Series struct {
	// Id holds the column id. If it's empty, the label is used.
	Id string
	// Label holds the human-readable name of the series.
	Label string
	// Values holds one value for each X position. A value
	// beyond the end of Values, or a NaN or infinite value,
	// is left empty.
	Values []float64
}

// NewLineTable returns a data table with a numeric X column
// followed by one numeric column for each series.
// It returns an error if there are no X values or a series has more
// values than there are X positions.
func NewLineTable(xLabel string, x []float64, series ...Series) (*DataTable, error) {
	if len(x) == 0 {
		return nil, errgo.Newf("no X values")
	}
	dt := &DataTable{
		Cols: make([]Column, 0, len(series)+1),
		Rows: make([]Row, len(x)),
	}
	dt.Cols = append(dt.Cols, Column{
		Type:  TNumber,
		Id:    "x",
		Label: xLabel,
	})
	for i, s := range series {
		if len(s.Values) > len(x) {
			return nil, errgo.Newf("series %d (%q) has %d values but only %d X positions", i, s.Label, len(s.Values), len(x))
		}
		id := s.Id
		if id == "" {
			id = s.Label
		}
		dt.Cols = append(dt.Cols, Column{
			Type:  TNumber,
			Id:    id,
			Label: s.Label,
		})
	}
	ncols := len(dt.Cols)
	// Allocate all the cells at once and slice them up between the rows.
	cells := make([]Cell, len(x)*ncols)
	for row := range dt.Rows {
		rcells := cells[0:ncols:ncols]
		cells = cells[ncols:]
		rcells[0].Value = x[row]
		for col, s := range series {
			if row < len(s.Values) && isFinite(s.Values[row]) {
				rcells[col+1].Value = s.Values[row]
			}
		}
		dt.Rows[row].Cells = rcells
	}
	return dt, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
