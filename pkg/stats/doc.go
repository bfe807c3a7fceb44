// Package stats summarizes task measurements: empirical duration
// distributions with a log-normal reference, one-dimensional mean-shift
// clustering of task input sizes, and gap filling for probe series.
package stats
