package convert

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/kickstart"
	"github.com/matzehuels/wflens/pkg/logstore"
)

// invocationPair returns the cf2.0 start and stop entries of one
// invocation. The stop is stamped start+total and carries the duration in
// milliseconds.
func invocationPair(id int, session, host, transformation string, start, total float64) (logstore.Entry, logstore.Entry) {
	started := logstore.Entry{
		Timestamp: start,
		MsgType:   logstore.MsgTypeInvoc,
		Data: &logstore.Data{
			HostName: host,
			ID:       id,
			LamName:  transformation,
			Status:   "started",
		},
		Session: logstore.Session{ID: session},
		Vsn:     logstore.VersionCF20,
	}
	stopped := started
	data := *started.Data
	data.Status = "ok"
	data.Info = &logstore.Info{TDur: total * 1000, TStart: start}
	stopped.Data = &data
	stopped.Timestamp = start + total
	return started, stopped
}

// CF20Events converts kickstart records into start/stop log entries of
// session workflowID. Invocation ids count up from 0 in record order.
// Records without a start time or CPU times are skipped and counted.
func CF20Events(recs []*kickstart.Record, workflowID string) (entries []logstore.Entry, skipped int) {
	id := 0
	for _, rec := range recs {
		total, ok := rec.TotalTime()
		if !ok || rec.Start.IsZero() {
			skipped++
			continue
		}
		start, stop := invocationPair(id, workflowID, rec.Host, rec.Transformation, rec.StartUnix(), total)
		entries = append(entries, start, stop)
		id++
	}
	return entries, skipped
}

// EventsFromCSV builds start/stop log entries from a table written by
// [WriteCSV] or [JoinCSV]. The run column becomes the session id, and every
// column from input_file_sum_kb on is copied into the entry metrics. Rows
// with an unparseable start or total time are skipped and counted.
func EventsFromCSV(r io.Reader) (entries []logstore.Entry, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read header")
	}

	col := func(name string) (int, error) {
		i := slices.Index(header, name)
		if i < 0 {
			return 0, errors.New(errors.ErrCodeInvalidFormat, "missing column %q", name)
		}
		return i, nil
	}
	var idx [6]int
	for k, name := range []string{"mainjob_started", "total_time_s", "host_name", "transformation", "run", "input_file_sum_kb"} {
		if idx[k], err = col(name); err != nil {
			return nil, 0, err
		}
	}
	iStart, iTotal, iHost, iTrans, iRun, iMetrics := idx[0], idx[1], idx[2], idx[3], idx[4], idx[5]

	id := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
		}
		if len(row) != len(header) {
			skipped++
			continue
		}
		start, err1 := strconv.ParseFloat(row[iStart], 64)
		total, err2 := strconv.ParseFloat(row[iTotal], 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		metrics := make(map[string]string, len(header)-iMetrics)
		for i := iMetrics; i < len(header); i++ {
			metrics[header[i]] = row[i]
		}
		started, stopped := invocationPair(id, row[iRun], row[iHost], row[iTrans], start, total)
		started.Metrics, stopped.Metrics = metrics, metrics
		entries = append(entries, started, stopped)
		id++
	}
	return entries, skipped, nil
}
