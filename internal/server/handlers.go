package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wflens/pkg/buildinfo"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/pipeline"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/render/sink"
)

// MaxEntryBytes limits the body of POST /submit.
const MaxEntryBytes = 1 << 20

type errorBody struct {
	Error     errors.Code `json:"error"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{Error: code, Message: errors.UserMessage(err), RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", render.JSON.ContentType())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, f render.Format, data []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxEntryBytes+1))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(body) > MaxEntryBytes {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "entry larger than %d bytes", MaxEntryBytes))
		return
	}
	var e logstore.Entry
	if err := json.Unmarshal(body, &e); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidLogEntry, err, "decode entry"))
		return
	}
	if err := e.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Insert(r.Context(), e); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "session": e.Session.ID})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions(r.Context(), logstore.SessionFilter{Host: r.URL.Query().Get("host")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []logstore.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.store.SessionStats(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tasks, err := s.store.TaskTypeStats(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []logstore.TaskTypeStats{}
	}
	writeJSON(w, http.StatusOK, struct {
		ID    string                   `json:"id"`
		Stats *logstore.SessionStats   `json:"stats"`
		Tasks []logstore.TaskTypeStats `json:"tasks"`
	}{id, st, tasks})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := formatParam(q.Get("format"), render.JSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view := pipeline.SessionView{
		SessionID: chi.URLParam(r, "id"),
		Order:     listParam(q.Get("order")),
		Palette:   s.opts.Palette,
	}
	if v := q.Get("since"); v != "" {
		if view.Since, err = strconv.ParseFloat(v, 64); err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid since %q", v))
			return
		}
	}

	load, err := s.runner.SessionLoad(r.Context(), s.store, view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.runner.RenderLoad(r.Context(), load, f, s.opts.ChartSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, f, out)
}

func (s *Server) handleDurations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := formatParam(q.Get("format"), render.JSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	minSamples := 0
	if v := q.Get("min"); v != "" {
		if minSamples, err = strconv.Atoi(v); err != nil || minSamples < 1 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid min %q", v))
			return
		}
	}
	sessions := q["session"]
	for _, id := range sessions {
		if err := errors.ValidateSessionID(id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, err := s.runner.Durations(r.Context(), s.store, sessions, minSamples)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task := q.Get("task")
	if task == "" {
		if f != render.JSON {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "format %s needs a task parameter", f))
			return
		}
		out, err := sink.RenderDurationsJSON(res.Tasks)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeBytes(w, f, out)
		return
	}
	out, err := s.runner.RenderDurations(r.Context(), res, task, f, s.opts.ChartSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, f, out)
}

func formatParam(v string, def render.Format) (render.Format, error) {
	if v == "" {
		return def, nil
	}
	return render.ParseFormat(v)
}

func listParam(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
