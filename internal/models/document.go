package models

import "time"

// Document is the record persisted for one processed upload. It is written
// once under a freshly generated ID and never updated by the processor.
type Document struct {
	DocumentID      string          `firestore:"documentId" json:"documentId"`
	FileName        string          `firestore:"fileName" json:"fileName"`
	Bucket          string          `firestore:"bucket,omitempty" json:"bucket,omitempty"`
	FileType        string          `firestore:"fileType,omitempty" json:"fileType,omitempty"`
	Text            string          `firestore:"text" json:"text"`
	TextTruncated   bool            `firestore:"textTruncated,omitempty" json:"textTruncated,omitempty"`
	Size            int64           `firestore:"size" json:"size"`
	PageCount       int             `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	UploadedAt      time.Time       `firestore:"uploadedAt" json:"uploadedAt"`
	ProcessedAt     time.Time       `firestore:"processedAt" json:"processedAt"`
	Language        string          `firestore:"language" json:"language"`
	WordCount       int             `firestore:"wordCount" json:"wordCount"`
	UniqueWordCount int             `firestore:"uniqueWordCount" json:"uniqueWordCount"`
	LineCount       int             `firestore:"lineCount" json:"lineCount"`
	TopWords        []WordFrequency `firestore:"topWords" json:"topWords"`
}

// WordFrequency is one entry of a document's top word ranking.
type WordFrequency struct {
	Word  string `firestore:"word" json:"word"`
	Count int    `firestore:"count" json:"count"`
}
