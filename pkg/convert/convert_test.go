package convert

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/kickstart"
)

func testRecord() *kickstart.Record {
	inv := &kickstart.Invocation{
		JobID:          "ID0000123",
		Transformation: "genome::map:1.0",
		Host:           "runs",
		Start:          time.Unix(1472620731, 519000000),
		Usage: kickstart.Attrs{
			"utime": "86.5", "stime": "0.25", "maxrss": "194312",
			"nvcsw": "24", "nivcsw": "164", "nswap": "0", "minflt": "46609",
		},
		Machine: map[string]kickstart.Attrs{
			kickstart.SectionLoad: {"min1": "8.33", "min5": "3.94", "min15": "6.44"},
		},
		Files: []kickstart.FileStat{
			{Name: "/run/in.bfa", Attrs: kickstart.Attrs{"size": "2048"}},
			{Name: "/run/out.map", Attrs: kickstart.Attrs{"size": "1024"}},
		},
	}
	return &kickstart.Record{
		Invocation: inv,
		Inputs:     inv.MatchFiles([]string{"in.bfa"}),
		Outputs:    inv.MatchFiles([]string{"out.map"}),
	}
}

func TestHeader(t *testing.T) {
	h := Header()
	if len(h) != 6+7+19+3 {
		t.Errorf("len(Header()) = %d", len(h))
	}
	if h[0] != "run_group" || h[13] != "min1" || h[16] != "procs_total" || h[len(h)-1] != "peak_memory_kb" {
		t.Errorf("Header() = %v", h)
	}
}

func TestRow(t *testing.T) {
	row := Row("taq", "20160831T122313+0000", testRecord())
	h := Header()
	if len(row) != len(h) {
		t.Fatalf("len(row) = %d, want %d", len(row), len(h))
	}
	get := func(col string) string {
		for i, c := range h {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("no column %s", col)
		return ""
	}
	tests := map[string]string{
		"transformation":    "genome::map:1.0",
		"mainjob_started":   "1472620731.519",
		"host_name":         "runs",
		"input_file_sum_kb": "2",
		"utime":             "86.5",
		"min5":              "3.94",
		"procs_total":       NA,
		"swap_free":         NA,
		"out_size_kb":       "1",
		"total_time_s":      "86.75",
		"peak_memory_kb":    "194312",
	}
	for col, want := range tests {
		if got := get(col); got != want {
			t.Errorf("%s = %q, want %q", col, got, want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "taq", "run1", []*kickstart.Record{testRecord(), testRecord()}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "taq,run1,genome::map:1.0,") {
		t.Errorf("WriteCSV() =\n%s", buf.String())
	}
}

func TestMergeHeaders(t *testing.T) {
	tests := []struct {
		a, b, want []string
	}{
		{nil, []string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "b", "c"}, []string{"a", "x", "c"}, []string{"a", "x", "b", "c"}},
		{[]string{"a", "b"}, []string{"x", "a"}, []string{"x", "a", "b"}},
		{[]string{"a"}, []string{"a", "y", "z"}, []string{"a", "y", "z"}},
	}
	for _, tt := range tests {
		if got := MergeHeaders(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("MergeHeaders(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestJoinCSV(t *testing.T) {
	a := "run,x,y\nr1,1,2\n"
	b := "run,z,y\nr2,3,4\n"
	var buf bytes.Buffer
	if err := JoinCSV(&buf, strings.NewReader(a), strings.NewReader(b), strings.NewReader("")); err != nil {
		t.Fatal(err)
	}
	want := "run,z,x,y\nr1,NA,1,2\nr2,3,NA,4\n"
	if buf.String() != want {
		t.Errorf("JoinCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestCF20Events(t *testing.T) {
	noUsage := testRecord()
	noUsage.Invocation = &kickstart.Invocation{Transformation: "x"}

	entries, skipped := CF20Events([]*kickstart.Record{testRecord(), noUsage}, "wf")
	if skipped != 1 || len(entries) != 2 {
		t.Fatalf("CF20Events() = %d entries, %d skipped", len(entries), skipped)
	}
	start, stop := entries[0], entries[1]
	if start.Data.Status != "started" || stop.Data.Status != "ok" || start.Session.ID != "wf" {
		t.Errorf("statuses = %s/%s", start.Data.Status, stop.Data.Status)
	}
	if start.Data.Info != nil {
		t.Error("start entry has duration info")
	}
	t0, _ := start.Time()
	t1, _ := stop.Time()
	if d := t1 - t0; d < 86.74 || d > 86.76 {
		t.Errorf("stop - start = %v", d)
	}
	if d, _ := stop.Duration(); d < 86.74 || d > 86.76 {
		t.Errorf("Duration() = %v", d)
	}
}

func TestEventsFromCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "taq", "run1", []*kickstart.Record{testRecord()}); err != nil {
		t.Fatal(err)
	}
	buf.WriteString(strings.Repeat("x,", len(Header())-1) + "x\n")

	entries, skipped, err := EventsFromCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || skipped != 1 {
		t.Fatalf("EventsFromCSV() = %d entries, %d skipped", len(entries), skipped)
	}
	e := entries[1]
	if e.Session.ID != "run1" || e.Host() != "runs" || e.Metrics["min1"] != "8.33" || e.Metrics["run"] != "" {
		t.Errorf("entry = %+v", e)
	}
	if _, ok := e.Metrics["input_file_sum_kb"]; !ok {
		t.Error("metrics start at input_file_sum_kb")
	}

	_, _, err = EventsFromCSV(strings.NewReader("a,b\n1,2\n"))
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("missing columns error = %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := testRecord()
	doc := Document("taq", "run0001", []*kickstart.Record{rec})
	if len(doc.Records) != 1 {
		t.Fatalf("len(Records) = %d", len(doc.Records))
	}
	d := doc.Records[0]
	if d.InputBytes != 2048 {
		t.Errorf("InputBytes = %v, want 2048", d.InputBytes)
	}
	if d.OutputBytes == nil || *d.OutputBytes != 1024 {
		t.Errorf("OutputBytes = %v, want 1024", d.OutputBytes)
	}
	if d.PeakMemoryKB == nil || *d.PeakMemoryKB != 194312 {
		t.Errorf("PeakMemoryKB = %v", d.PeakMemoryKB)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, "taq", "run0001", []*kickstart.Record{rec}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"run_group": "taq"`, `"job_id": "ID0000123"`, `"input_bytes": 2048`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("JSON missing %s:\n%s", want, buf.String())
		}
	}
}
