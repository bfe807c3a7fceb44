// Package kickstart reads the invocation records Pegasus kickstart writes
// for every executed job (the XML ".out" files next to a workflow run).
//
// A record describes the main job's resource usage, the machine state at
// launch (load averages, process counts, memory) and statistics for every
// file the job touched. Missing sections do not fail the parse; they are
// listed in [Invocation.Missing].
package kickstart

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/wflens/pkg/dax"
	"github.com/matzehuels/wflens/pkg/errors"
)

// Machine sections read from <machine><linux>.
const (
	SectionLoad  = "load"
	SectionProcs = "procs"
	SectionTask  = "task"
	SectionRAM   = "ram"
	SectionSwap  = "swap"
)

// Attrs holds the raw attributes of one XML element.
type Attrs map[string]string

// Float parses attribute key. ok is false if it is absent or malformed.
func (a Attrs) Float(key string) (v float64, ok bool) {
	s, present := a[key]
	if !present {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// FileStat is one <file> element of the record.
type FileStat struct {
	Name  string `json:"name"`
	Attrs Attrs  `json:"attrs"`
}

// Size returns the file size in bytes.
func (f FileStat) Size() (float64, bool) { return f.Attrs.Float("size") }

// Invocation is a parsed invocation record.
type Invocation struct {
	JobID          string           `json:"job_id"` // the derivation attribute, equal to the DAX job id
	Transformation string           `json:"transformation"`
	Host           string           `json:"host_name,omitempty"`
	Start          time.Time        `json:"mainjob_started"`
	Usage          Attrs            `json:"usage,omitempty"`
	Machine        map[string]Attrs `json:"machine,omitempty"`
	Files          []FileStat       `json:"files,omitempty"`
	// Missing names the sections that were not found.
	Missing []string `json:"missing,omitempty"`
}

// StartUnix returns the main job start as fractional Unix seconds.
func (inv *Invocation) StartUnix() float64 {
	if inv.Start.IsZero() {
		return 0
	}
	return float64(inv.Start.UnixNano()) / 1e9
}

// TotalTime returns user plus system CPU time in seconds.
func (inv *Invocation) TotalTime() (float64, bool) {
	u, ok1 := inv.Usage.Float("utime")
	s, ok2 := inv.Usage.Float("stime")
	return u + s, ok1 && ok2
}

// PeakMemoryKB returns the maximum resident set size.
func (inv *Invocation) PeakMemoryKB() (float64, bool) {
	return inv.Usage.Float("maxrss")
}

// MatchFiles looks up the statistics of the given relative file names. The
// record stores absolute paths, so a name matches the first file whose path
// ends with it. Names without a match are skipped.
func (inv *Invocation) MatchFiles(names []string) []FileStat {
	var out []FileStat
	for _, n := range names {
		for _, f := range inv.Files {
			if strings.HasSuffix(f.Name, n) {
				out = append(out, FileStat{Name: n, Attrs: f.Attrs})
				break
			}
		}
	}
	return out
}

// Record is an invocation joined with the data files its DAX job declares.
type Record struct {
	*Invocation
	Inputs  []FileStat
	Outputs []FileStat
}

// Enrich attaches file statistics for the job's declared data files, in the
// order the job lists them. Files the record has no statistics for are left
// out.
func Enrich(inv *Invocation, u dax.Usage) *Record {
	return &Record{
		Invocation: inv,
		Inputs:     inv.MatchFiles(u.Inputs),
		Outputs:    inv.MatchFiles(u.Outputs),
	}
}

// InputBytes sums the sizes of the matched input files.
func (r *Record) InputBytes() float64 { return sumSizes(r.Inputs) }

// OutputBytes sums the sizes of the matched output files. ok is false when
// no output file has a size.
func (r *Record) OutputBytes() (float64, bool) {
	if len(r.Outputs) == 0 {
		return 0, false
	}
	for _, f := range r.Outputs {
		if _, ok := f.Size(); !ok {
			return 0, false
		}
	}
	return sumSizes(r.Outputs), true
}

func sumSizes(files []FileStat) float64 {
	total := 0.0
	for _, f := range files {
		if v, ok := f.Size(); ok {
			total += v
		}
	}
	return total
}

// ParseFile parses the invocation record at path.
func ParseFile(path string) (*Invocation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	inv, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return inv, nil
}

// Parse reads an invocation record.
func Parse(r io.Reader) (*Invocation, error) {
	dec := xml.NewDecoder(r)
	inv := &Invocation{Machine: make(map[string]Attrs)}
	var stack []string
	root := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode invocation record")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			attrs := toAttrs(t.Attr)

			switch {
			case len(stack) == 0:
				if name != "invocation" {
					return nil, errors.New(errors.ErrCodeInvalidFormat, "root element is <%s>, want <invocation>", name)
				}
				root = true
				inv.JobID = attrs["derivation"]
				inv.Transformation = attrs["transformation"]
			case name == "mainjob" && parent == "invocation":
				if ts, ok := parseTime(attrs["start"]); ok {
					inv.Start = ts
				}
			case name == "usage" && parent == "mainjob":
				inv.Usage = attrs
			case name == "uname" && parent == "machine":
				inv.Host = attrs["nodename"]
			case parent == "linux" && isMachineSection(name):
				inv.Machine[name] = attrs
			case name == "file":
				inv.Files = append(inv.Files, FileStat{Name: attrs["name"], Attrs: attrs})
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !root {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty invocation record")
	}
	inv.Missing = missingSections(inv)
	return inv, nil
}

func isMachineSection(name string) bool {
	switch name {
	case SectionLoad, SectionProcs, SectionTask, SectionRAM, SectionSwap:
		return true
	}
	return false
}

func missingSections(inv *Invocation) []string {
	var missing []string
	if inv.Usage == nil {
		missing = append(missing, "usage")
	}
	if inv.Start.IsZero() {
		missing = append(missing, "mainjob_started")
	}
	if inv.Host == "" {
		missing = append(missing, "host_name")
	}
	for _, s := range []string{SectionLoad, SectionProcs, SectionTask} {
		if inv.Machine[s] == nil {
			missing = append(missing, s)
		}
	}
	return missing
}

func toAttrs(attrs []xml.Attr) Attrs {
	out := make(Attrs, len(attrs))
	for _, a := range attrs {
		out[a.Name.Local] = a.Value
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
