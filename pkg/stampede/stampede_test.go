package stampede

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/wflens/pkg/errors"
)

// newTestDB writes a small stampede database and reopens it read-only.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genome-dax-0.stampede.db")

	w, err := open(path, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.db.AutoMigrate(&Task{}, &Invocation{}, &JobInstance{}); err != nil {
		t.Fatal(err)
	}
	tasks := []Task{
		{TaskID: 1, AbsTaskID: "ID00001", Transformation: "genome::map:1.0"},
		{TaskID: 2, AbsTaskID: "ID00002", Transformation: "genome::map:1.0"},
		{TaskID: 3, AbsTaskID: "ID00000", Transformation: "genome::fastqSplit:1.0"},
	}
	instances := []JobInstance{
		{JobInstanceID: 10, StdoutFile: "fastqSplit_ID00000.out.000"},
		{JobInstanceID: 11, StdoutFile: "map_ID00001.out.000"},
		{JobInstanceID: 12, StdoutFile: "map_ID00002.out.000"},
		{JobInstanceID: 13, StdoutFile: "create_dir_genome_0.out.000"},
	}
	invocations := []Invocation{
		{InvocationID: 100, JobInstanceID: 10, Transformation: "genome::fastqSplit:1.0"},
		{InvocationID: 101, JobInstanceID: 11, Transformation: "genome::map:1.0"},
		{InvocationID: 102, JobInstanceID: 12, Transformation: "genome::map:1.0"},
		{InvocationID: 103, JobInstanceID: 13, Transformation: "pegasus::dirmanager"},
	}
	for _, rows := range []any{&tasks, &instances, &invocations} {
		if err := w.db.Create(rows).Error; err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTransformations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		mainOnly bool
		want     []string
	}{
		{true, []string{"genome::fastqSplit:1.0", "genome::map:1.0"}},
		{false, []string{"genome::fastqSplit:1.0", "genome::map:1.0", "pegasus::dirmanager"}},
	}
	for _, tt := range tests {
		got, err := db.Transformations(ctx, tt.mainOnly)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Transformations(%v) = %v, want %v", tt.mainOnly, got, tt.want)
		}
	}
}

func TestInvocationFiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.InvocationFiles(ctx, "genome::map:1.0")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"map_ID00001.out.000", "map_ID00002.out.000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InvocationFiles() = %v, want %v", got, want)
	}

	paths, err := db.InvocationPaths(ctx, "genome::map:1.0")
	if err != nil {
		t.Fatal(err)
	}
	if paths[0] != filepath.Join(db.Dir(), want[0]) {
		t.Errorf("InvocationPaths()[0] = %s", paths[0])
	}

	none, err := db.InvocationFiles(ctx, "unknown")
	if err != nil || len(none) != 0 {
		t.Errorf("InvocationFiles(unknown) = %v, %v", none, err)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "none.stampede.db"))
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("Open() error = %v", err)
	}
}

func TestFind(t *testing.T) {
	db := newTestDB(t)
	got, err := Find(db.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "genome-dax-0.stampede.db" {
		t.Errorf("Find() = %s", got)
	}
	if _, err := Find(t.TempDir()); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("Find(empty) error = %v", err)
	}
}
