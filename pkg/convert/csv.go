// Package convert turns Pegasus provenance (DAX files plus kickstart
// records) into flat CSV tables and into workflow log entries.
package convert

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/kickstart"
)

// NA marks unavailable values.
const NA = "NA"

var (
	usageColumns = []string{"utime", "stime", "maxrss", "nvcsw", "nivcsw", "nswap", "minflt"}

	machineColumns = []struct {
		section string
		prefix  string
		attrs   []string
	}{
		{kickstart.SectionLoad, "", []string{"min1", "min5", "min15"}},
		{kickstart.SectionProcs, "procs_", []string{"total", "running", "sleeping", "waiting", "vmsize", "rss"}},
		{kickstart.SectionTask, "task_", []string{"total", "running", "sleeping", "waiting"}},
		{kickstart.SectionRAM, "ram_", []string{"total", "free", "shared", "buffer"}},
		{kickstart.SectionSwap, "swap_", []string{"total", "free"}},
	}
)

// Header returns the column labels written by [WriteCSV].
func Header() []string {
	h := []string{"run_group", "run", "transformation", "mainjob_started", "host_name", "input_file_sum_kb"}
	h = append(h, usageColumns...)
	for _, m := range machineColumns {
		for _, a := range m.attrs {
			h = append(h, m.prefix+a)
		}
	}
	return append(h, "out_size_kb", "total_time_s", "peak_memory_kb")
}

// Row returns the CSV values of one record in [Header] order.
func Row(runGroup, run string, rec *kickstart.Record) []string {
	row := []string{
		runGroup,
		run,
		rec.Transformation,
		naTime(rec.Invocation),
		naString(rec.Host),
		formatFloat(rec.InputBytes() / 1024),
	}
	for _, a := range usageColumns {
		row = append(row, naFloat(rec.Usage.Float(a)))
	}
	for _, m := range machineColumns {
		section := rec.Machine[m.section]
		for _, a := range m.attrs {
			if v, ok := section[a]; ok {
				row = append(row, v)
			} else {
				row = append(row, NA)
			}
		}
	}
	out, ok := rec.OutputBytes()
	if ok {
		row = append(row, formatFloat(out/1024))
	} else {
		row = append(row, NA)
	}
	row = append(row, naFloat(rec.TotalTime()))
	return append(row, naFloat(rec.PeakMemoryKB()))
}

// WriteCSV writes a header and one row per record.
func WriteCSV(w io.Writer, runGroup, run string, recs []*kickstart.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := cw.Write(Row(runGroup, run, rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MergeHeaders returns the ordered union of two headers. Columns of a keep
// their order; a column only in b is placed right after the nearest column
// preceding it in b that is already present, or first if there is none.
func MergeHeaders(a, b []string) []string {
	out := slices.Clone(a)
	prev := -1
	for _, col := range b {
		if i := slices.Index(out, col); i >= 0 {
			prev = i
			continue
		}
		prev++
		out = slices.Insert(out, prev, col)
	}
	return out
}

// JoinCSV concatenates CSV tables with possibly different headers into one
// table over the merged header. Cells of absent columns are filled with NA.
func JoinCSV(w io.Writer, readers ...io.Reader) error {
	type table struct {
		header []string
		rows   [][]string
	}
	tables := make([]table, 0, len(readers))
	var header []string
	for i, r := range readers {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		records, err := cr.ReadAll()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read table %d", i)
		}
		if len(records) == 0 {
			continue
		}
		tables = append(tables, table{header: records[0], rows: records[1:]})
		header = MergeHeaders(header, records[0])
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range tables {
		pos := make(map[string]int, len(t.header))
		for i, col := range t.header {
			pos[col] = i
		}
		for _, row := range t.rows {
			out := make([]string, len(header))
			for i, col := range header {
				out[i] = NA
				if j, ok := pos[col]; ok && j < len(row) {
					out[i] = row[j]
				}
			}
			if err := cw.Write(out); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func naFloat(v float64, ok bool) string {
	if !ok {
		return NA
	}
	return formatFloat(v)
}

func naString(s string) string {
	if s == "" {
		return NA
	}
	return s
}

func naTime(inv *kickstart.Invocation) string {
	if inv.Start.IsZero() {
		return NA
	}
	return strconv.FormatFloat(inv.StartUnix(), 'f', 3, 64)
}
