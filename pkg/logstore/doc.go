// Package logstore reads and writes workflow log entries.
//
// Workflow engines report every task invocation twice, once when it starts
// and once when it stops. The entries are kept in a document collection
// (MongoDB in production, see [Mongo]) and queried per session, the id of
// one workflow run. Two schema versions are understood: cf2.0, which nests
// the invocation under "data", and the flat cf3.0.
//
// [Decode] converts stored entries into the start/stop events consumed by
// the interval package.
package logstore
