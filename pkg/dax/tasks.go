package dax

import "slices"

// TaskSample is the size and runtime of one job of a task type.
type TaskSample struct {
	InputBytes  int64   `json:"input_bytes"`
	OutputBytes int64   `json:"output_bytes"`
	Runtime     float64 `json:"runtime"`
}

// TaskData groups the jobs of the workflow by job name.
func (w *Workflow) TaskData() map[string][]TaskSample {
	out := make(map[string][]TaskSample)
	for _, j := range w.Jobs {
		out[j.Name] = append(out[j.Name], TaskSample{
			InputBytes:  j.InputBytes(),
			OutputBytes: j.OutputBytes(),
			Runtime:     j.Runtime,
		})
	}
	return out
}

// TaskNames returns the distinct job names in document order.
func (w *Workflow) TaskNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, j := range w.Jobs {
		if !seen[j.Name] {
			seen[j.Name] = true
			names = append(names, j.Name)
		}
	}
	return names
}

// Usage lists the data files of one job, ordered by their position in the
// job's argument list when every file appears there.
type Usage struct {
	Inputs  []string `json:"input_files"`
	Outputs []string `json:"output_files"`
	// Ordered reports per direction whether argument order could be applied.
	InputsOrdered  bool `json:"inputs_ordered"`
	OutputsOrdered bool `json:"outputs_ordered"`
}

// FileUsage returns the data-file usage of every job keyed by job ID.
// Executables are skipped.
func (w *Workflow) FileUsage() map[string]Usage {
	out := make(map[string]Usage, len(w.Jobs))
	for _, j := range w.Jobs {
		var u Usage
		u.Inputs, u.InputsOrdered = orderByArguments(dataFiles(j.Inputs), j.Arguments)
		u.Outputs, u.OutputsOrdered = orderByArguments(dataFiles(j.Outputs), j.Arguments)
		out[j.ID] = u
	}
	return out
}

func dataFiles(files []File) []string {
	var names []string
	for _, f := range files {
		if f.Type == "" || f.Type == "data" {
			names = append(names, f.Name)
		}
	}
	return names
}

// orderByArguments sorts names by their index in args. If any name is not
// an argument the document order is kept.
func orderByArguments(names, args []string) ([]string, bool) {
	pos := make(map[string]int, len(args))
	for i, a := range args {
		if _, ok := pos[a]; !ok {
			pos[a] = i
		}
	}
	for _, n := range names {
		if _, ok := pos[n]; !ok {
			return names, false
		}
	}
	sorted := slices.Clone(names)
	slices.SortStableFunc(sorted, func(a, b string) int { return pos[a] - pos[b] })
	return sorted, true
}
