package convert

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/wflens/pkg/kickstart"
)

// RunDoc is the JSON form of the records of one run.
type RunDoc struct {
	RunGroup string      `json:"run_group"`
	Run      string      `json:"run"`
	Records  []RecordDoc `json:"records"`
}

// RecordDoc is one invocation with its derived columns.
type RecordDoc struct {
	*kickstart.Invocation
	Inputs       []kickstart.FileStat `json:"inputs,omitempty"`
	Outputs      []kickstart.FileStat `json:"outputs,omitempty"`
	InputBytes   float64              `json:"input_bytes"`
	OutputBytes  *float64             `json:"output_bytes,omitempty"`
	TotalTime    *float64             `json:"total_time,omitempty"`
	PeakMemoryKB *float64             `json:"peak_memory_kb,omitempty"`
}

// Document builds the JSON document of a run. Values a record does not
// carry are left out rather than written as NA.
func Document(runGroup, run string, recs []*kickstart.Record) RunDoc {
	doc := RunDoc{RunGroup: runGroup, Run: run, Records: make([]RecordDoc, len(recs))}
	for i, rec := range recs {
		d := RecordDoc{
			Invocation: rec.Invocation,
			Inputs:     rec.Inputs,
			Outputs:    rec.Outputs,
			InputBytes: rec.InputBytes(),
		}
		d.OutputBytes = optional(rec.OutputBytes())
		d.TotalTime = optional(rec.TotalTime())
		d.PeakMemoryKB = optional(rec.PeakMemoryKB())
		doc.Records[i] = d
	}
	return doc
}

// WriteJSON writes the indented JSON document of a run.
func WriteJSON(w io.Writer, runGroup, run string, recs []*kickstart.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document(runGroup, run, recs))
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
