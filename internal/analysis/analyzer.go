// Package analysis computes word, line and language statistics for extracted text.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// UnknownLanguage is reported whenever no language can be detected.
	UnknownLanguage = "unknown"

	// DefaultTopK is the number of ranked words kept by the processor.
	DefaultTopK = 10
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// WordFrequency pairs a token with its number of occurrences.
type WordFrequency struct {
	Word  string
	Count int
}

// Result holds the statistics for one text.
type Result struct {
	WordCount       int
	UniqueWordCount int
	LineCount       int
	TopWords        []WordFrequency
	Language        string
}

// Analyzer computes a Result for a text. A nil Detector disables language
// detection and always reports UnknownLanguage.
type Analyzer struct {
	Detector Detector
	TopK     int
}

// New returns an Analyzer keeping the topK most frequent words.
func New(detector Detector, topK int) *Analyzer {
	return &Analyzer{Detector: detector, TopK: topK}
}

// Analyze never fails: empty text yields zero counts and UnknownLanguage.
func (a *Analyzer) Analyze(text string) Result {
	tokens := Tokenize(text)
	counts := countTokens(tokens)
	return Result{
		WordCount:       len(tokens),
		UniqueWordCount: len(counts.order),
		LineCount:       CountLines(text),
		TopWords:        counts.top(a.TopK),
		Language:        DetectLanguage(a.Detector, text),
	}
}

// Tokenize splits text into maximal runs of letters, digits and underscores,
// lower cased.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	lower := cases.Lower(language.Und)
	raw := tokenPattern.FindAllString(text, -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tokens = append(tokens, lower.String(tok))
	}
	return tokens
}

// CountLines counts newline separated lines. Empty lines count; a single
// trailing newline ends the last line rather than starting a new one.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// TopWords ranks tokens by descending count. Ties keep the order in which
// tokens were first seen. k <= 0 returns every distinct token.
func TopWords(tokens []string, k int) []WordFrequency {
	return countTokens(tokens).top(k)
}

type tokenCounts struct {
	order  []string
	counts map[string]int
}

func countTokens(tokens []string) tokenCounts {
	tc := tokenCounts{counts: make(map[string]int, len(tokens))}
	for _, tok := range tokens {
		if _, seen := tc.counts[tok]; !seen {
			tc.order = append(tc.order, tok)
		}
		tc.counts[tok]++
	}
	return tc
}

func (tc tokenCounts) top(k int) []WordFrequency {
	if len(tc.order) == 0 {
		return nil
	}
	ranked := make([]WordFrequency, 0, len(tc.order))
	for _, word := range tc.order {
		ranked = append(ranked, WordFrequency{Word: word, Count: tc.counts[word]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
