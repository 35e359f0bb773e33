package extract

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// extractCSV flattens delimited rows into one space separated string. Rows
// the parser rejects are skipped.
func extractCSV(content []byte) string {
	text := decodeText(content)
	if text == "" {
		return ""
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			break
		}
		rows = append(rows, strings.Join(record, " "))
	}
	return strings.Join(rows, " ")
}
