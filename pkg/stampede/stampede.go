// Package stampede queries the SQLite database Pegasus writes next to every
// workflow run (the "stampede" database, usually <dax>-0.stampede.db).
//
// Only the tables needed to locate invocation records are mapped: task,
// invocation and job_instance. The database is opened read-only.
package stampede

import (
	"context"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/matzehuels/wflens/pkg/errors"
)

// Task is a row of the task table: one job of the abstract workflow.
type Task struct {
	TaskID         int64  `gorm:"column:task_id;primaryKey"`
	JobID          int64  `gorm:"column:job_id"`
	WfID           int64  `gorm:"column:wf_id"`
	AbsTaskID      string `gorm:"column:abs_task_id"`
	Transformation string `gorm:"column:transformation"`
	Argv           string `gorm:"column:argv"`
	TypeDesc       string `gorm:"column:type_desc"`
}

func (Task) TableName() string { return "task" }

// Invocation is a row of the invocation table: one executed program.
type Invocation struct {
	InvocationID   int64   `gorm:"column:invocation_id;primaryKey"`
	JobInstanceID  int64   `gorm:"column:job_instance_id;index"`
	WfID           int64   `gorm:"column:wf_id"`
	TaskSubmitSeq  int64   `gorm:"column:task_submit_seq"`
	StartTime      float64 `gorm:"column:start_time"`
	RemoteDuration float64 `gorm:"column:remote_duration"`
	ExitCode       int     `gorm:"column:exitcode"`
	Transformation string  `gorm:"column:transformation;index"`
	AbsTaskID      string  `gorm:"column:abs_task_id"`
}

func (Invocation) TableName() string { return "invocation" }

// JobInstance is a row of the job_instance table. StdoutFile names the
// kickstart record of the instance, relative to the run directory.
type JobInstance struct {
	JobInstanceID int64  `gorm:"column:job_instance_id;primaryKey"`
	JobID         int64  `gorm:"column:job_id"`
	JobSubmitSeq  int64  `gorm:"column:job_submit_seq"`
	SchedID       string `gorm:"column:sched_id"`
	ExitCode      int    `gorm:"column:exitcode"`
	StdoutFile    string `gorm:"column:stdout_file"`
	StderrFile    string `gorm:"column:stderr_file"`
}

func (JobInstance) TableName() string { return "job_instance" }

// DB is an open stampede database.
type DB struct {
	db   *gorm.DB
	path string
}

// Open opens the stampede database at path read-only.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stampede database %s", path)
		}
		return nil, err
	}
	return open(path, "file:"+path+"?mode=ro")
}

func open(path, dsn string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open stampede database %s", path)
	}
	return &DB{db: db, path: path}, nil
}

// Find returns the stampede database in a run directory. If more than one
// matches, the lexically first is used.
func Find(runDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(runDir, "*.stampede.db"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.New(errors.ErrCodeFileNotFound, "no *.stampede.db in %s", runDir)
	}
	return matches[0], nil
}

// Dir returns the directory holding the database, which is the base for
// relative record paths.
func (d *DB) Dir() string { return filepath.Dir(d.path) }

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transformations returns the distinct task types of the run, sorted. With
// mainJobsOnly set only transformations of the abstract workflow are listed,
// leaving out auxiliary jobs (stage-in, cleanup, directory creation) that
// appear only in the invocation table.
func (d *DB) Transformations(ctx context.Context, mainJobsOnly bool) ([]string, error) {
	model := any(&Invocation{})
	if mainJobsOnly {
		model = &Task{}
	}
	var out []string
	if err := d.db.WithContext(ctx).
		Model(model).
		Group("transformation").
		Order("transformation").
		Pluck("transformation", &out).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "query transformations")
	}
	return out, nil
}

// InvocationFiles returns the kickstart record paths of every invocation of
// a transformation, relative to [DB.Dir], in invocation order.
func (d *DB) InvocationFiles(ctx context.Context, transformation string) ([]string, error) {
	var out []string
	if err := d.db.WithContext(ctx).
		Table("invocation").
		Joins("JOIN job_instance ON invocation.job_instance_id = job_instance.job_instance_id").
		Where("invocation.transformation = ?", transformation).
		Order("invocation.invocation_id").
		Pluck("job_instance.stdout_file", &out).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "query invocation files for %s", transformation)
	}
	return out, nil
}

// InvocationPaths is [DB.InvocationFiles] resolved against [DB.Dir].
func (d *DB) InvocationPaths(ctx context.Context, transformation string) ([]string, error) {
	files, err := d.InvocationFiles(ctx, transformation)
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		if !filepath.IsAbs(f) {
			files[i] = filepath.Join(d.Dir(), f)
		}
	}
	return files, nil
}
