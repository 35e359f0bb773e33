// Package notify formats analysis reports and delivers them to message brokers.
package notify

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
)

// Message is a notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// Format builds the analysis report for the object called name.
func Format(name string, res analysis.Result) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Document Processed: %s\n", name)
	fmt.Fprintf(&b, "Language: %s\n", res.Language)
	fmt.Fprintf(&b, "Word Count: %d\n", res.WordCount)
	fmt.Fprintf(&b, "Unique Words: %d\n", res.UniqueWordCount)
	fmt.Fprintf(&b, "Line Count: %d\n", res.LineCount)
	fmt.Fprintf(&b, "Top %d Words:", len(res.TopWords))
	for _, wf := range res.TopWords {
		fmt.Fprintf(&b, "\n%s: %d", wf.Word, wf.Count)
	}

	return Message{
		Subject: "Document Analysis Report: " + name,
		Body:    b.String(),
	}
}

// FormatUpload builds the message announcing a new upload.
func FormatUpload(bucket, name string) Message {
	return Message{
		Subject: "New File Uploaded: " + name,
		Body: fmt.Sprintf("File Uploaded\nBucket: %s\nKey: %s\n\nThe document will now be extracted and analyzed automatically.",
			bucket, name),
	}
}
