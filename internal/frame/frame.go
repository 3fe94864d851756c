package frame

import (
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Frame is a time-indexed matrix with named columns.
// Rows are time steps, columns are network elements (lines, stations, buses).
// A Frame is immutable once built; operations return new frames.
type Frame struct {
	index   []time.Time
	columns []string
	pos     map[string]int
	data    *mat.Dense // nil when the frame has no rows or no columns
}

// New wraps data into a frame. data may be nil if index or columns is empty.
func New(index []time.Time, columns []string, data *mat.Dense) (*Frame, error) {
	pos := make(map[string]int, len(columns))
	for j, c := range columns {
		if _, dup := pos[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		pos[c] = j
	}
	if len(index) == 0 || len(columns) == 0 {
		data = nil
	} else {
		if data == nil {
			return nil, fmt.Errorf("frame data is nil for %dx%d frame", len(index), len(columns))
		}
		r, c := data.Dims()
		if r != len(index) || c != len(columns) {
			return nil, fmt.Errorf("frame data is %dx%d, index/columns need %dx%d", r, c, len(index), len(columns))
		}
	}
	return &Frame{
		index:   append([]time.Time(nil), index...),
		columns: append([]string(nil), columns...),
		pos:     pos,
		data:    data,
	}, nil
}

// Empty returns a frame with the given index and no columns.
func Empty(index []time.Time) *Frame {
	f, _ := New(index, nil, nil)
	return f
}

// FromColumns builds a frame from column vectors; values[j] belongs to columns[j].
func FromColumns(index []time.Time, columns []string, values [][]float64) (*Frame, error) {
	if len(values) != len(columns) {
		return nil, fmt.Errorf("got %d value columns for %d column names", len(values), len(columns))
	}
	if len(index) == 0 || len(columns) == 0 {
		return New(index, columns, nil)
	}
	d := mat.NewDense(len(index), len(columns), nil)
	for j, col := range values {
		if len(col) != len(index) {
			return nil, fmt.Errorf("column %q has %d values, index has %d", columns[j], len(col), len(index))
		}
		d.SetCol(j, col)
	}
	return New(index, columns, d)
}

// FromRows builds a frame from row vectors; rows[i] belongs to index[i].
func FromRows(index []time.Time, columns []string, rows [][]float64) (*Frame, error) {
	if len(rows) != len(index) {
		return nil, fmt.Errorf("got %d rows for %d time steps", len(rows), len(index))
	}
	if len(index) == 0 || len(columns) == 0 {
		return New(index, columns, nil)
	}
	d := mat.NewDense(len(index), len(columns), nil)
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
		d.SetRow(i, row)
	}
	return New(index, columns, d)
}

func (f *Frame) Index() []time.Time { return f.index }

func (f *Frame) Columns() []string { return f.columns }

func (f *Frame) Rows() int { return len(f.index) }

func (f *Frame) Cols() int {
	if f == nil {
		return 0
	}
	return len(f.columns)
}

// IsEmpty reports whether the frame holds no values.
func (f *Frame) IsEmpty() bool { return f == nil || f.data == nil }

func (f *Frame) Has(col string) bool {
	if f == nil {
		return false
	}
	_, ok := f.pos[col]
	return ok
}

// At returns the value at time step i and column j.
func (f *Frame) At(i, j int) float64 { return f.data.At(i, j) }

// ColumnAt returns a copy of column j.
func (f *Frame) ColumnAt(j int) []float64 {
	return mat.Col(nil, j, f.data)
}

// Column returns a copy of the named column.
func (f *Frame) Column(col string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	j, ok := f.pos[col]
	if !ok || f.data == nil {
		return nil, false
	}
	return f.ColumnAt(j), true
}

// Select returns a frame with the given columns in the given order.
func (f *Frame) Select(cols []string) (*Frame, error) {
	for _, c := range cols {
		if !f.Has(c) {
			return nil, fmt.Errorf("column %q not in frame", c)
		}
	}
	if len(cols) == 0 || len(f.index) == 0 {
		return New(f.index, cols, nil)
	}
	d := mat.NewDense(len(f.index), len(cols), nil)
	for j, c := range cols {
		d.SetCol(j, f.ColumnAt(f.pos[c]))
	}
	return New(f.index, cols, d)
}

// SumColumns returns the per-time-step sum over the named columns.
func (f *Frame) SumColumns(cols []string) ([]float64, error) {
	out := make([]float64, len(f.index))
	for _, c := range cols {
		v, ok := f.Column(c)
		if !ok {
			return nil, fmt.Errorf("column %q not in frame", c)
		}
		for i := range out {
			out[i] += v[i]
		}
	}
	return out, nil
}

// Div divides num by den elementwise. den is aligned to num's columns by name.
func Div(num, den *Frame) (*Frame, error) {
	if !sameIndex(num.index, den.index) {
		return nil, fmt.Errorf("frames have different time indices")
	}
	aligned, err := den.Select(num.columns)
	if err != nil {
		return nil, err
	}
	if num.IsEmpty() {
		return New(num.index, num.columns, nil)
	}
	var out mat.Dense
	out.DivElem(num.data, aligned.data)
	return New(num.index, num.columns, &out)
}

// Concat joins frames column-wise. All frames must share the same time index.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return Empty(nil), nil
	}
	index := frames[0].index
	var cols []string
	var data *mat.Dense
	for _, f := range frames {
		if !sameIndex(index, f.index) {
			return nil, fmt.Errorf("frames have different time indices")
		}
		cols = append(cols, f.columns...)
		if f.data == nil {
			continue
		}
		if data == nil {
			data = mat.DenseCopyOf(f.data)
			continue
		}
		var next mat.Dense
		next.Augment(data, f.data)
		data = &next
	}
	return New(index, cols, data)
}

func sameIndex(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

type frameJSON struct {
	Index   []time.Time `json:"index"`
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

func (f *Frame) MarshalJSON() ([]byte, error) {
	out := frameJSON{Index: f.index, Columns: f.columns, Data: make([][]float64, len(f.index))}
	for i := range f.index {
		if f.data == nil {
			out.Data[i] = []float64{}
			continue
		}
		out.Data[i] = mat.Row(nil, i, f.data)
	}
	return json.Marshal(out)
}

func (f *Frame) UnmarshalJSON(raw []byte) error {
	var in frameJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	if len(in.Data) == 0 && len(in.Columns) == 0 {
		in.Data = make([][]float64, len(in.Index))
	}
	built, err := FromRows(in.Index, in.Columns, in.Data)
	if err != nil {
		return err
	}
	*f = *built
	return nil
}
