// Package render turns layouts, load series and duration summaries into
// images and documents.
//
// # Overview
//
// Charts are drawn with gonum/plot and written as SVG, PNG or PDF:
//
//   - [dagplot]: a laid-out workflow graph, one filled circle per job
//   - [areaplot]: the stacked running-task chart of one session
//   - [cdfplot]: the duration distribution of one task type
//
// The [nodelink] subpackage emits Graphviz DOT for the same layouts and
// renders it in-process. The [sink] subpackage writes the JSON documents
// served by the HTTP API.
//
// [ToPDF] and [ToPNG] convert SVG produced elsewhere (Graphviz) using the
// external rsvg-convert tool.
//
// [dagplot]: github.com/matzehuels/wflens/pkg/render/dagplot
// [areaplot]: github.com/matzehuels/wflens/pkg/render/areaplot
// [cdfplot]: github.com/matzehuels/wflens/pkg/render/cdfplot
// [nodelink]: github.com/matzehuels/wflens/pkg/render/nodelink
// [sink]: github.com/matzehuels/wflens/pkg/render/sink
package render
