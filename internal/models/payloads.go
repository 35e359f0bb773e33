package models

// These structs define the JSON payloads exchanged between the storage
// trigger, the analysis workflow and the worker Cloud Functions.

// GCSEvent is the data payload of a google.cloud.storage.object.v1.finalized CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// ObjectRef names one uploaded object.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// UploadEvent is an ordered batch of uploaded objects.
type UploadEvent struct {
	Records []ObjectRef `json:"records"`
}

// UploadEventFromGCS wraps a single storage notification into a batch of one.
func UploadEventFromGCS(e GCSEvent) UploadEvent {
	return UploadEvent{Records: []ObjectRef{{Bucket: e.Bucket, Name: e.Name}}}
}

// AnalyzerRequest is the input for the document-analyzer function.
type AnalyzerRequest struct {
	DocumentID string `json:"documentId"`
}

// AnalyzerResponse is the output of the document-analyzer function.
type AnalyzerResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
	Language   string `json:"language,omitempty"`
	WordCount  int    `json:"wordCount"`
	Notified   bool   `json:"notified"`
}
