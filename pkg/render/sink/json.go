package sink

import (
	"encoding/json"

	"github.com/matzehuels/wflens/pkg/interval"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/stats"
)

// JSONOption configures the JSON renderers.
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title   string
	source  string
	session string
	total   []interval.Point
	compact bool
}

// WithTitle records a human-readable title in the document.
func WithTitle(s string) JSONOption { return func(r *jsonRenderer) { r.title = s } }

// WithSource records where the data came from (a file path or store URI).
func WithSource(s string) JSONOption { return func(r *jsonRenderer) { r.source = s } }

// WithSession records the session the document describes.
func WithSession(id string) JSONOption { return func(r *jsonRenderer) { r.session = id } }

// WithTotal includes the running-total trace in a series document.
func WithTotal(pts []interval.Point) JSONOption { return func(r *jsonRenderer) { r.total = pts } }

// WithCompact disables indentation.
func WithCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

func newRenderer(opts []JSONOption) jsonRenderer {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r jsonRenderer) marshal(v any) ([]byte, error) {
	if r.compact {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// LayoutDoc is the JSON form of a laid-out workflow.
type LayoutDoc struct {
	Title  string     `json:"title,omitempty"`
	Source string     `json:"source,omitempty"`
	Dist   float64    `json:"dist"`
	MinX   float64    `json:"min_x"`
	MaxX   float64    `json:"max_x"`
	MaxY   float64    `json:"max_y"`
	Rows   [][]string `json:"rows"`
	Nodes  []Node     `json:"nodes"`
	Edges  []Edge     `json:"edges"`
}

// Node is one positioned job.
type Node struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Row   int     `json:"row"`
	Col   int     `json:"col"`
}

// Edge is a parent-child dependency.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LayoutDocument builds the document for res. Nodes are listed row by row,
// left to right.
func LayoutDocument(res *layout.Result, store layout.Store, opts ...JSONOption) LayoutDoc {
	r := newRenderer(opts)
	doc := LayoutDoc{
		Title:  r.title,
		Source: r.source,
		Dist:   res.Dist,
		MinX:   res.MinX,
		MaxX:   res.MaxX,
		MaxY:   res.MaxY,
		Rows:   res.Rows,
		Nodes:  make([]Node, 0, res.NodeCount()),
		Edges:  make([]Edge, len(res.Edges)),
	}
	for _, row := range res.Rows {
		for _, id := range row {
			n := Node{ID: id}
			if a := store[id]; a != nil {
				n.Name, n.Color = a.Name, a.Color
				n.X, n.Y, n.Row, n.Col = a.X, a.Y, a.Row, a.Col
			}
			doc.Nodes = append(doc.Nodes, n)
		}
	}
	for i, e := range res.Edges {
		doc.Edges[i] = Edge{From: e.From, To: e.To}
	}
	return doc
}

// RenderLayoutJSON exports a layout as JSON.
func RenderLayoutJSON(res *layout.Result, store layout.Store, opts ...JSONOption) ([]byte, error) {
	return newRenderer(opts).marshal(LayoutDocument(res, store, opts...))
}

// SeriesDoc is the JSON form of a session's stacked chart.
type SeriesDoc struct {
	Title   string            `json:"title,omitempty"`
	Source  string            `json:"source,omitempty"`
	Session string            `json:"session,omitempty"`
	Order   []string          `json:"order"`
	Series  []interval.Series `json:"series"`
	Total   []interval.Point  `json:"total,omitempty"`
	Peak    float64           `json:"peak"`
	Mean    float64           `json:"mean"`
	Open    map[string]int    `json:"open,omitempty"`
	Clamped int               `json:"clamped"`
	Skipped int               `json:"skipped"`
	Start   float64           `json:"start"`
	End     float64           `json:"end"`
}

// SeriesDocument builds the document for a reconstruction. Peak and Mean are
// computed from the WithTotal trace when given.
func SeriesDocument(res *interval.Result, opts ...JSONOption) SeriesDoc {
	r := newRenderer(opts)
	doc := SeriesDoc{
		Title:   r.title,
		Source:  r.source,
		Session: r.session,
		Order:   res.Order(),
		Series:  res.Series,
		Total:   r.total,
		Open:    res.Open,
		Clamped: res.Clamped,
		Skipped: res.Skipped,
		Start:   res.Start,
		End:     res.End,
	}
	doc.Peak, doc.Mean = interval.Utilization(r.total)
	return doc
}

// RenderSeriesJSON exports a reconstruction as JSON.
func RenderSeriesJSON(res *interval.Result, opts ...JSONOption) ([]byte, error) {
	return newRenderer(opts).marshal(SeriesDocument(res, opts...))
}

// DurationsDoc is the JSON form of per-task duration summaries.
type DurationsDoc struct {
	Title  string                            `json:"title,omitempty"`
	Source string                            `json:"source,omitempty"`
	Tasks  map[string]*stats.DurationSummary `json:"tasks"`
}

// RenderDurationsJSON exports duration summaries keyed by task type.
func RenderDurationsJSON(tasks map[string]*stats.DurationSummary, opts ...JSONOption) ([]byte, error) {
	r := newRenderer(opts)
	if tasks == nil {
		tasks = map[string]*stats.DurationSummary{}
	}
	return r.marshal(DurationsDoc{Title: r.title, Source: r.source, Tasks: tasks})
}
