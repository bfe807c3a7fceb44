package logstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/interval"
)

// Log schema versions.
const (
	VersionCF20 = "cf2.0"
	VersionCF30 = "cf3.0"
)

// Message and event types that describe task invocations.
const (
	MsgTypeInvoc    = "invoc"
	EventInvocStart = "invoc_start"
	EventInvocStop  = "invoc_stop"
)

// Session identifies the workflow run an entry belongs to.
type Session struct {
	ID     string  `bson:"id" json:"id"`
	TStart float64 `bson:"tstart" json:"tstart"`
}

// Info carries the duration of a finished cf2.0 invocation.
type Info struct {
	TDur   float64 `bson:"tdur" json:"tdur"` // milliseconds
	TStart any     `bson:"tstart,omitempty" json:"tstart,omitempty"`
}

// Data is the payload of a cf2.0 "invoc" message.
type Data struct {
	HostName string `bson:"host_name,omitempty" json:"host_name,omitempty"`
	ID       any    `bson:"id" json:"id"`
	LamName  string `bson:"lam_name" json:"lam_name"`
	Status   string `bson:"status" json:"status"`
	Info     *Info  `bson:"info,omitempty" json:"info,omitempty"`
}

// Machine names the host of a cf3.0 invocation.
type Machine struct {
	HostName string `bson:"host_name" json:"host_name"`
}

// FileRef is a file listed in a cf3.0 entry.
type FileRef struct {
	Name     string `bson:"name" json:"name"`
	SizeByte string `bson:"size_byte,omitempty" json:"size_byte,omitempty"`
}

// Entry is one workflow log record as stored in the log collection. cf2.0
// entries carry their invocation in Data; cf3.0 entries use the flat Event,
// InvocID and TaskType fields.
type Entry struct {
	Timestamp any     `bson:"timestamp" json:"timestamp"`
	Vsn       string  `bson:"vsn" json:"vsn"`
	Session   Session `bson:"session" json:"session"`

	MsgType string `bson:"msg_type,omitempty" json:"msg_type,omitempty"`
	Data    *Data  `bson:"data,omitempty" json:"data,omitempty"`

	Event         string            `bson:"event,omitempty" json:"event,omitempty"`
	InvocID       any               `bson:"invoc_id,omitempty" json:"invoc_id,omitempty"`
	TaskType      string            `bson:"task_type,omitempty" json:"task_type,omitempty"`
	ExitCode      string            `bson:"exitcode,omitempty" json:"exitcode,omitempty"`
	Machine       *Machine          `bson:"machine,omitempty" json:"machine,omitempty"`
	InputFiles    []FileRef         `bson:"input_files,omitempty" json:"input_files,omitempty"`
	OutputFiles   []FileRef         `bson:"output_files,omitempty" json:"output_files,omitempty"`
	ResourceUsage map[string]string `bson:"resource_usage,omitempty" json:"resource_usage,omitempty"`

	// Metrics holds per-invocation measurements copied from converted
	// provenance (load averages, memory, file sizes).
	Metrics map[string]string `bson:"metrics,omitempty" json:"metrics,omitempty"`
}

// IsCF3 reports whether the entry uses the flat cf3.0 layout.
func (e *Entry) IsCF3() bool {
	return e.Vsn == VersionCF30 || (e.Data == nil && e.Event != "")
}

// IsInvocation reports whether the entry describes a task invocation
// rather than, for example, a machine probe.
func (e *Entry) IsInvocation() bool {
	if e.IsCF3() {
		return strings.HasPrefix(e.Event, "invoc")
	}
	return e.Data != nil && (e.MsgType == "" || e.MsgType == MsgTypeInvoc)
}

// Time returns the entry timestamp in seconds. Timestamps are numbers or
// numeric strings depending on the producer.
func (e *Entry) Time() (float64, bool) {
	return toFloat(e.Timestamp)
}

// Kind returns whether the entry starts or stops an invocation.
func (e *Entry) Kind() interval.Kind {
	if e.IsCF3() {
		return interval.ParseKind(e.Event)
	}
	if e.Data == nil {
		return interval.Unknown
	}
	return interval.ParseKind(e.Data.Status)
}

// TaskName returns the full task type name as logged.
func (e *Entry) TaskName() string {
	if e.IsCF3() {
		return e.TaskType
	}
	if e.Data == nil {
		return ""
	}
	return e.Data.LamName
}

// InvocationKey returns the id correlating the start and stop of one
// invocation, or "" if the entry has none.
func (e *Entry) InvocationKey() string {
	var id any
	if e.IsCF3() {
		id = e.InvocID
	} else if e.Data != nil {
		id = e.Data.ID
	}
	if id == nil {
		return ""
	}
	if f, ok := id.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(id)
}

// Host returns the machine the invocation ran on.
func (e *Entry) Host() string {
	if e.Machine != nil {
		return e.Machine.HostName
	}
	if e.Data != nil {
		return e.Data.HostName
	}
	return ""
}

// Duration returns the logged run time of a finished invocation in seconds.
func (e *Entry) Duration() (float64, bool) {
	if e.Data == nil || e.Data.Info == nil {
		return 0, false
	}
	return e.Data.Info.TDur / 1000, true
}

// Validate checks that the entry can be stored and replayed.
func (e *Entry) Validate() error {
	if err := errors.ValidateSessionID(e.Session.ID); err != nil {
		return err
	}
	if _, ok := e.Time(); !ok {
		return errors.New(errors.ErrCodeInvalidLogEntry, "timestamp %v is not a number", e.Timestamp)
	}
	if !e.IsInvocation() {
		return nil
	}
	if e.Kind() == interval.Unknown {
		return errors.New(errors.ErrCodeInvalidLogEntry, "unknown invocation status")
	}
	if e.TaskName() == "" {
		return errors.New(errors.ErrCodeInvalidLogEntry, "missing task type")
	}
	return nil
}

// ShortName reduces a qualified transformation name such as
// "genome::map:1.0" to its bare name ("map").
func ShortName(name string) string {
	if i := strings.Index(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
