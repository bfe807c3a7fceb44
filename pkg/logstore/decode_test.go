package logstore

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/wflens/pkg/interval"
)

func cf2(ts any, id int, name, status string) Entry {
	return Entry{
		Timestamp: ts,
		MsgType:   MsgTypeInvoc,
		Vsn:       VersionCF20,
		Session:   Session{ID: "s1"},
		Data:      &Data{ID: id, LamName: name, Status: status},
	}
}

func TestDecode(t *testing.T) {
	entries := []Entry{
		cf2(2.0, 1, "genome::map:1.0", "ok"),
		cf2(0.0, 1, "genome::map:1.0", "started"),
		cf2(1.0, 2, "genome::sol2sanger:1.0", "started"),
		cf2(1.5, 9, "genome::map:1.0", "ok"), // never started
		cf2("garbage", 3, "genome::map:1.0", "started"),
		cf2(math.NaN(), 4, "genome::map:1.0", "started"),
		cf2(1.7, 5, "genome::map:1.0", "queued"),
		{Timestamp: 1.0, MsgType: "machine_probe", Session: Session{ID: "s1"}},
		cf2(3.0, 2, "genome::sol2sanger:1.0", "ok"),
	}

	d := Decode(entries)
	want := []interval.Event{
		{Time: 0, TaskType: "map", Kind: interval.Start},
		{Time: 1, TaskType: "sol2sanger", Kind: interval.Start},
		{Time: 2, TaskType: "map", Kind: interval.Stop},
		{Time: 3, TaskType: "sol2sanger", Kind: interval.Stop},
	}
	if !reflect.DeepEqual(d.Events, want) {
		t.Errorf("Events = %v, want %v", d.Events, want)
	}
	if d.Dropped != 3 || d.Unmatched != 1 || d.Ignored != 1 {
		t.Errorf("Dropped=%d Unmatched=%d Ignored=%d", d.Dropped, d.Unmatched, d.Ignored)
	}
}

func TestDecode_StopsWithoutIDPassThrough(t *testing.T) {
	entries := []Entry{
		{Timestamp: 1.0, Vsn: VersionCF30, Event: EventInvocStart, TaskType: "a"},
		{Timestamp: 2.0, Vsn: VersionCF30, Event: EventInvocStop, TaskType: "a"},
		{Timestamp: 3.0, Vsn: VersionCF30, Event: EventInvocStop, TaskType: "a"},
	}
	d := Decode(entries)
	if len(d.Events) != 3 || d.Unmatched != 0 {
		t.Fatalf("Decode() = %+v", d)
	}
	res := interval.Reconstruct(d.Events, nil, nil)
	if res.Clamped != 1 {
		t.Errorf("Clamped = %d, want 1", res.Clamped)
	}
}

func TestDecode_Empty(t *testing.T) {
	d := Decode(nil)
	if d.Events == nil || len(d.Events) != 0 {
		t.Errorf("Events = %#v", d.Events)
	}
}
