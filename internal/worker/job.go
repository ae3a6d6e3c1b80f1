package worker

import "github.com/tourmaster/tourctl/internal/api"

// Job is one export unit: download a whole backend collection and write it
// to a JSONL file.
type Job struct {
	ID         int
	Collection api.Collection
}

// JobResult is the outcome of one export job.
type JobResult struct {
	Job        *Job
	Records    int
	OutputFile string
	Error      error
}

// WorkerState describes what a worker slot is currently doing.
type WorkerState int

const (
	WorkerStateIdle WorkerState = iota
	WorkerStateWorking
	WorkerStateBackingOff
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateBackingOff:
		return "backing off"
	default:
		return "unknown"
	}
}

// WorkerStatus is a point-in-time snapshot of a worker slot, consumed by the
// progress UI.
type WorkerStatus struct {
	WorkerID   int
	State      WorkerState
	Collection string
}
