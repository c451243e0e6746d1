// Package graph holds the in-memory state of a dependency resolution run:
// the accumulated requirement table (which gems are constrained, by whom and
// how) and the partial assignment of exact versions to gem names.
//
// The requirement table is append-only with journaled marks, so a
// backtracking solver can record a mark before merging a candidate's
// requirements and rewind to it when the candidate fails. Every constraint
// remembers its requirer, which lets a failed resolution report the full
// chain of requirements that made a gem unsatisfiable without re-running
// the search.
//
// A Graph is exclusively owned by a single resolution run and is not safe
// for concurrent use.
package graph
