// Package sink writes layouts, load series and duration summaries as JSON
// documents.
//
// # Overview
//
// The documents are the data interchange format of wflens: the HTTP API
// serves them, the CLI writes them with --format json, and the result cache
// stores them. Each renderer takes functional options:
//
//	data, err := sink.RenderLayoutJSON(res, store,
//	    sink.WithTitle("genome"),
//	    sink.WithSource("genome.dax"),
//	)
//
// All renderers are read-only with respect to their inputs and safe to call
// concurrently.
package sink
