package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/stampede"
)

// writeRun lays out a run directory with a stampede database listing one
// readable and one broken invocation record.
func writeRun(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "genome", "run0001")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	record, err := os.ReadFile("../kickstart/testdata/map_ID0000123.out")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "map_ID0000123.out.000"), record, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "map_ID0000124.out.000"), []byte("<invocation"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "genome-0.stampede.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&stampede.Task{}, &stampede.Invocation{}, &stampede.JobInstance{}); err != nil {
		t.Fatal(err)
	}
	rows := []any{
		&[]stampede.Task{{TaskID: 1, AbsTaskID: "ID0000123", Transformation: "genome::map:1.0"}},
		&[]stampede.JobInstance{
			{JobInstanceID: 10, StdoutFile: "map_ID0000123.out.000"},
			{JobInstanceID: 11, StdoutFile: "map_ID0000124.out.000"},
		},
		&[]stampede.Invocation{
			{InvocationID: 100, JobInstanceID: 10, Transformation: "genome::map:1.0"},
			{InvocationID: 101, JobInstanceID: 11, Transformation: "genome::map:1.0"},
		},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.Close()
	return dir
}

func TestCollectRun(t *testing.T) {
	dir := writeRun(t)
	r := newTestRunner(t)

	got, err := r.CollectRun(context.Background(), dir, CollectOptions{MainJobsOnly: true})
	if err != nil {
		t.Fatalf("CollectRun() error = %v", err)
	}
	if got.RunGroup != "genome" || got.Run != "run0001" {
		t.Errorf("run = %s/%s", got.RunGroup, got.Run)
	}
	if !reflect.DeepEqual(got.Transformations, []string{"genome::map:1.0"}) {
		t.Errorf("Transformations = %v", got.Transformations)
	}
	if len(got.Records) != 1 || got.Records[0].JobID != "ID0000123" {
		t.Fatalf("Records = %+v", got.Records)
	}
	if len(got.Unreadable) != 1 || filepath.Base(got.Unreadable[0]) != "map_ID0000124.out.000" {
		t.Errorf("Unreadable = %v", got.Unreadable)
	}
}

func TestCollectRun_NoDatabase(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.CollectRun(context.Background(), t.TempDir(), CollectOptions{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
