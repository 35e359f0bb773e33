package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/dslipak/pdf"
)

// errUnterminatedString marks a content stream whose lexer would never
// reach the end of a string token.
var errUnterminatedString = errors.New("unterminated string in content stream")

// checkPageContents reads the content streams of page and rejects the ones
// the text interpreter cannot lex to completion.
func checkPageContents(page pdf.Page) error {
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		return checkContentStream(contents)
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			if err := checkContentStream(contents.Index(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkContentStream(v pdf.Value) error {
	if v.Kind() != pdf.Stream {
		return nil
	}
	rc := v.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read content stream: %w", err)
	}
	return scanContentStrings(data)
}

// scanContentStrings walks data the way a content stream lexer does and
// fails when a literal string "(...)" or hex string "<...>" is left open.
// Comments run to the end of the line and "<<" opens a dictionary.
func scanContentStrings(data []byte) error {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '%':
			for i < len(data) && data[i] != '\r' && data[i] != '\n' {
				i++
			}
		case '(':
			end, ok := literalEnd(data, i+1)
			if !ok {
				return errUnterminatedString
			}
			i = end
		case '<':
			if i+1 < len(data) && data[i+1] == '<' {
				i++
				continue
			}
			end := i + 1
			for end < len(data) && data[end] != '>' {
				end++
			}
			if end >= len(data) {
				return errUnterminatedString
			}
			i = end
		}
	}
	return nil
}

// literalEnd returns the index of the parenthesis closing the literal string
// whose body starts at start.
func literalEnd(data []byte, start int) (int, bool) {
	depth := 1
	for j := start; j < len(data); j++ {
		switch data[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}
