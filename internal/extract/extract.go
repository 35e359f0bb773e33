// Package extract turns the raw bytes of an uploaded object into plain text.
//
// Extraction is best-effort: malformed content degrades to empty or partial
// text and never produces an error. Reading the object is the caller's job.
package extract

import (
	"path"
	"strings"
)

// UnsupportedText is returned as the extracted text of objects whose
// extension has no extraction strategy.
const UnsupportedText = "unsupported file type"

// Kind is the closed set of document kinds the extractor understands.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindCSV
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCSV:
		return "csv"
	case KindPDF:
		return "pdf"
	default:
		return "unsupported"
	}
}

// KindOf classifies an object by the suffix of its name. Names without an
// extension are treated as plain text.
func KindOf(name string) Kind {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".csv":
		return KindCSV
	case ".txt", "":
		return KindText
	default:
		return KindUnsupported
	}
}

// Result is the outcome of extracting one object.
type Result struct {
	Kind      Kind
	Text      string
	PageCount int
}

type strategy func(content []byte) Result

var strategies = map[Kind]strategy{
	KindText: func(content []byte) Result { return Result{Kind: KindText, Text: decodeText(content)} },
	KindCSV:  func(content []byte) Result { return Result{Kind: KindCSV, Text: extractCSV(content)} },
	KindPDF:  extractPDF,
}

// Extract dispatches on the object name and returns the extracted text.
func Extract(name string, content []byte) Result {
	kind := KindOf(name)
	s, ok := strategies[kind]
	if !ok {
		return Result{Kind: KindUnsupported, Text: UnsupportedText}
	}
	return s(content)
}
