// Package metrics records extraction outcomes. Engine packages depend on the
// Recorder interface only; the Prometheus implementation lives alongside.
package metrics

import "time"

// Recorder receives one call per message or statement parse.
type Recorder interface {
	// RecordMessage counts a message parse. Bank is empty when nothing matched.
	RecordMessage(bank, outcome string)

	// RecordStatement counts a statement parse and observes its duration.
	RecordStatement(bank, fileType, outcome string, duration time.Duration, transactions int)
}

// NoOpRecorder discards everything. It is the default when no recorder is configured.
type NoOpRecorder struct{}

// RecordMessage does nothing.
func (NoOpRecorder) RecordMessage(bank, outcome string) {}

// RecordStatement does nothing.
func (NoOpRecorder) RecordStatement(bank, fileType, outcome string, duration time.Duration, transactions int) {
}

// OrNoOp returns r, or a NoOpRecorder when r is nil.
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NoOpRecorder{}
	}
	return r
}
