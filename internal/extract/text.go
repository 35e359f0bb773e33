package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// decodeText decodes content as UTF-8, dropping a leading byte order mark and
// any invalid byte sequences.
func decodeText(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(content)
	if err != nil {
		decoded = content
	}
	return dropInvalid(string(decoded))
}

func dropInvalid(s string) string {
	s = strings.ToValidUTF8(s, "")
	if !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	return strings.ReplaceAll(s, string(utf8.RuneError), "")
}
