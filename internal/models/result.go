package models

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Stage is a step of the per-record processing state machine.
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageExtracting Stage = "EXTRACTING"
	StageAnalyzing  Stage = "ANALYZING"
	StagePersisting Stage = "PERSISTING"
	StageNotifying  Stage = "NOTIFYING"
	StageDone       Stage = "DONE"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RecordResult is the outcome of processing one upload record. When Status is
// failed, Stage names the stage that failed.
type RecordResult struct {
	Bucket            string `json:"bucket"`
	Name              string `json:"name"`
	DocumentID        string `json:"documentId,omitempty"`
	Stage             Stage  `json:"stage"`
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	Notified          bool   `json:"notified"`
	AnalysisTriggered bool   `json:"analysisTriggered"`

	err error
}

// Fail marks the record as failed in stage and keeps err for aggregation.
func (r *RecordResult) Fail(stage Stage, err error) {
	r.Stage = stage
	r.Status = StatusFailed
	r.Error = err.Error()
	r.err = err
}

// Failed reports whether the record ended in a failed state.
func (r *RecordResult) Failed() bool {
	return r.Status == StatusFailed
}

// Unwrap returns the underlying processing error, if any.
func (r *RecordResult) Unwrap() error {
	return r.err
}

// BatchResult holds one RecordResult per input record, in input order.
type BatchResult struct {
	Records []*RecordResult `json:"records"`
}

// Succeeded counts records that reached StageDone.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Records {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// Err aggregates the errors of all failed records, or returns nil.
func (b *BatchResult) Err() error {
	var result *multierror.Error
	for i, r := range b.Records {
		if !r.Failed() {
			continue
		}
		err := r.err
		if err == nil {
			err = fmt.Errorf("%s", r.Error)
		}
		result = multierror.Append(result, fmt.Errorf("record %d (gs://%s/%s) failed at %s: %w", i, r.Bucket, r.Name, r.Stage, err))
	}
	return result.ErrorOrNil()
}
