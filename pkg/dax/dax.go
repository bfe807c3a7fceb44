// Package dax reads Pegasus DAX (abstract DAG in XML) workflow descriptions.
//
// Elements are matched by local name, so every DAX schema version (2.1 to
// 3.x, with or without the http://pegasus.isi.edu/schema/DAX namespace) is
// accepted. Only jobs, their file usage and the child/parent relation are
// read; transformation catalogs and replica entries are ignored.
package dax

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/wflens/pkg/dag"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
)

// Link directions of a <uses> element.
const (
	LinkInput  = "input"
	LinkOutput = "output"
)

// File is one file used by a job.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"` // "data" or "executable"
}

// Job is one <job> element.
type Job struct {
	ID        string   `json:"id"`
	Namespace string   `json:"namespace,omitempty"`
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`
	Runtime   float64  `json:"runtime"`
	Arguments []string `json:"arguments,omitempty"` // <filename> references in argument order
	Inputs    []File   `json:"inputs,omitempty"`
	Outputs   []File   `json:"outputs,omitempty"`
}

// Transformation returns the fully qualified "namespace::name:version" the
// Pegasus stampede database uses for this job.
func (j Job) Transformation() string {
	var b strings.Builder
	if j.Namespace != "" {
		b.WriteString(j.Namespace)
		b.WriteString("::")
	}
	b.WriteString(j.Name)
	if j.Version != "" {
		b.WriteString(":")
		b.WriteString(j.Version)
	}
	return b.String()
}

// InputBytes sums the sizes of all input files.
func (j Job) InputBytes() int64 { return sumSizes(j.Inputs) }

// OutputBytes sums the sizes of all output files.
func (j Job) OutputBytes() int64 { return sumSizes(j.Outputs) }

func sumSizes(files []File) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}

// Workflow is a parsed DAX document.
type Workflow struct {
	Name string `json:"name,omitempty"`
	Jobs []Job  `json:"jobs"`

	// Parents maps a child job ID to the IDs it depends on. Repeated <child>
	// elements for one ref are merged.
	Parents map[string][]string `json:"parents"`

	children []string // child refs in document order
	byID     map[string]int
}

// Job returns the job with the given ID.
func (w *Workflow) Job(id string) (Job, bool) {
	i, ok := w.byID[id]
	if !ok {
		return Job{}, false
	}
	return w.Jobs[i], true
}

type adagXML struct {
	Name     string     `xml:"name,attr"`
	Jobs     []jobXML   `xml:"job"`
	Children []childXML `xml:"child"`
}

type jobXML struct {
	ID        string      `xml:"id,attr"`
	Namespace string      `xml:"namespace,attr"`
	Name      string      `xml:"name,attr"`
	Version   string      `xml:"version,attr"`
	Runtime   string      `xml:"runtime,attr"`
	Argument  argumentXML `xml:"argument"`
	Uses      []usesXML   `xml:"uses"`
}

type argumentXML struct {
	Filenames []struct {
		File string `xml:"file,attr"`
		Name string `xml:"name,attr"`
	} `xml:"filename"`
}

type usesXML struct {
	File string `xml:"file,attr"`
	Name string `xml:"name,attr"`
	Link string `xml:"link,attr"`
	Size string `xml:"size,attr"`
	Type string `xml:"type,attr"`
}

type childXML struct {
	Ref     string `xml:"ref,attr"`
	Parents []struct {
		Ref string `xml:"ref,attr"`
	} `xml:"parent"`
}

// ParseFile parses the DAX file at path.
func ParseFile(path string) (*Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a DAX document.
func Parse(r io.Reader) (*Workflow, error) {
	var doc adagXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode DAX")
	}

	w := &Workflow{
		Name:    doc.Name,
		Parents: make(map[string][]string),
		byID:    make(map[string]int, len(doc.Jobs)),
	}
	for _, jx := range doc.Jobs {
		job, err := convertJob(jx)
		if err != nil {
			return nil, err
		}
		if _, dup := w.byID[job.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate job id %q", job.ID)
		}
		w.byID[job.ID] = len(w.Jobs)
		w.Jobs = append(w.Jobs, job)
	}

	for _, c := range doc.Children {
		if c.Ref == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "<child> without ref")
		}
		if _, seen := w.Parents[c.Ref]; !seen {
			w.children = append(w.children, c.Ref)
			w.Parents[c.Ref] = nil
		}
		for _, p := range c.Parents {
			if p.Ref == "" {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "<parent> without ref in child %q", c.Ref)
			}
			if !slices.Contains(w.Parents[c.Ref], p.Ref) {
				w.Parents[c.Ref] = append(w.Parents[c.Ref], p.Ref)
			}
		}
	}
	return w, nil
}

func convertJob(jx jobXML) (Job, error) {
	if jx.ID == "" {
		return Job{}, errors.New(errors.ErrCodeInvalidFormat, "job without id")
	}
	job := Job{ID: jx.ID, Namespace: jx.Namespace, Name: jx.Name, Version: jx.Version}
	if jx.Runtime != "" {
		rt, err := strconv.ParseFloat(jx.Runtime, 64)
		if err != nil {
			return Job{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "job %q: runtime", jx.ID)
		}
		job.Runtime = rt
	}
	for _, fn := range jx.Argument.Filenames {
		job.Arguments = append(job.Arguments, firstNonEmpty(fn.File, fn.Name))
	}
	for _, u := range jx.Uses {
		f := File{Name: firstNonEmpty(u.File, u.Name), Type: u.Type}
		if u.Size != "" {
			size, err := strconv.ParseInt(u.Size, 10, 64)
			if err != nil {
				return Job{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "job %q: size of %q", jx.ID, f.Name)
			}
			f.Size = size
		}
		switch u.Link {
		case LinkInput:
			job.Inputs = append(job.Inputs, f)
		case LinkOutput:
			job.Outputs = append(job.Outputs, f)
		}
	}
	return job, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Graph builds the dependency graph. Jobs are declared in document order
// with their complete parent lists; a <child> ref that is not a job is
// declared after all jobs. Parents that are never declared remain
// placeholders.
func (w *Workflow) Graph() (*dag.Graph, error) {
	g := dag.New()
	for _, j := range w.Jobs {
		if err := g.AddNode(j.ID, w.Parents[j.ID]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "job %q", j.ID)
		}
	}
	for _, ref := range w.children {
		if _, ok := w.byID[ref]; ok {
			continue
		}
		if err := g.AddNode(ref, w.Parents[ref]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "child %q", ref)
		}
	}
	return g, nil
}

// Attrs returns a layout attribute store with one entry per job, named and
// colored by job name.
func (w *Workflow) Attrs(color func(name string) string) layout.Store {
	store := make(layout.Store, len(w.Jobs))
	for _, j := range w.Jobs {
		store[j.ID] = &layout.Attrs{Name: j.Name, Color: color(j.Name)}
	}
	return store
}

// String summarizes the workflow for log output.
func (w *Workflow) String() string {
	return fmt.Sprintf("%s (%d jobs, %d dependents)", w.Name, len(w.Jobs), len(w.children))
}
