// Package invalid is C13: the run-wide invalid-data tracker. It keeps
// the original's three-way split (invalid points / invalid clusters /
// processing errors) so the end-of-run report can tell an operator
// what was dropped and why, backed by a mutex-guarded slice per class
// in the idiom of the teacher's datasource.FetchQueue counters.
package invalid

import (
	"sync"

	"github.com/socialmapper/socialmapper/internal/types"
)

// Tracker accumulates invalid records across every pipeline stage.
type Tracker struct {
	mu      sync.Mutex
	points  []types.InvalidRecord
	clusters []types.InvalidRecord
	errors  []types.InvalidRecord
}

// New builds an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// RecordPoint logs an invalid POI (failed validation, geocoding, or
// extraction).
func (t *Tracker) RecordPoint(r types.InvalidRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = append(t.points, r)
}

// RecordCluster logs a cluster that failed isochrone generation
// (e.g. the road network download came back empty).
func (t *Tracker) RecordCluster(r types.InvalidRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clusters = append(t.clusters, r)
}

// RecordError logs a processing error that didn't cleanly attribute to
// a single POI or cluster (census fetch failure, intersection failure).
func (t *Tracker) RecordError(r types.InvalidRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, r)
}

// Summary is the end-of-run invalid-data report.
type Summary struct {
	InvalidPoints   []types.InvalidRecord
	InvalidClusters []types.InvalidRecord
	ProcessingErrors []types.InvalidRecord
}

// Summary snapshots copies of the records recorded so far.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		InvalidPoints:    append([]types.InvalidRecord{}, t.points...),
		InvalidClusters:  append([]types.InvalidRecord{}, t.clusters...),
		ProcessingErrors: append([]types.InvalidRecord{}, t.errors...),
	}
}

// Total returns the combined count across all three classes.
func (s Summary) Total() int {
	return len(s.InvalidPoints) + len(s.InvalidClusters) + len(s.ProcessingErrors)
}
