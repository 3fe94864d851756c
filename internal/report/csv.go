package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"grid-constraints/internal/frame"
)

// WriteViolationsCSV writes rows to path, one violating element per line.
func WriteViolationsCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeViolationsCSV(f, rows)
}

func EncodeViolationsCSV(out io.Writer, rows []Row) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"category", "grid", "element", "value", "time_index"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Category,
			r.Grid,
			r.Element,
			fmtFloat(r.Value),
			fmtTime(r.TimeIndex),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFrameCSV writes a time-indexed frame with a leading time column,
// e.g. the relative loading of all components.
func WriteFrameCSV(path string, f *frame.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return EncodeFrameCSV(file, f)
}

func EncodeFrameCSV(out io.Writer, f *frame.Frame) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := append([]string{"time_index"}, f.Columns()...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, t := range f.Index() {
		row := make([]string, 0, f.Cols()+1)
		row = append(row, fmtTime(t))
		for j := 0; j < f.Cols(); j++ {
			row = append(row, fmtFloat(f.At(i, j)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
