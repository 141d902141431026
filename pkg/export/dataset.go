package export

import "fmt"

// Column describes one exported column. Width is a relative weight; zero
// means an even share.
type Column struct {
	Key   string
	Label string
	Width float64
}

// Dataset is tabular export content keyed by column key.
type Dataset struct {
	Columns []Column
	Rows    []map[string]string
}

// Labels returns the column headers in order.
func (d Dataset) Labels() []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = col.Label
		if out[i] == "" {
			out[i] = col.Key
		}
	}
	return out
}

// Record returns row values in column order.
func (d Dataset) Record(row map[string]string) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = row[col.Key]
	}
	return out
}

func (d Dataset) check(format string) error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("%s requires at least one column", format)
	}
	return nil
}

// weights normalises column widths so they sum to total.
func (d Dataset) weights(total float64) []float64 {
	sum := 0.0
	for _, col := range d.Columns {
		w := col.Width
		if w <= 0 {
			w = 1
		}
		sum += w
	}
	out := make([]float64, len(d.Columns))
	for i, col := range d.Columns {
		w := col.Width
		if w <= 0 {
			w = 1
		}
		out[i] = total * w / sum
	}
	return out
}
