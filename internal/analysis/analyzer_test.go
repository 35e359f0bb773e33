package analysis_test

import (
	"errors"
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
)

type stubDetector struct {
	code  string
	err   error
	calls int
}

func (s *stubDetector) Detect(string) (string, error) {
	s.calls++
	return s.code, s.err
}

type panicDetector struct{}

func (panicDetector) Detect(string) (string, error) { panic("model not loaded") }

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "case insensitive", input: "Word word WORD", want: []string{"word", "word", "word"}},
		{name: "punctuation separates", input: "hello, world! it's snake_case-42", want: []string{"hello", "world", "it", "s", "snake_case", "42"}},
		{name: "unicode letters", input: "École, МИР", want: []string{"école", "мир"}},
		{name: "lower cased not folded", input: "Straße STRASSE ΑΒΓ", want: []string{"straße", "strasse", "αβγ"}},
		{name: "whitespace only", input: " \n\t ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.Tokenize(tt.input)
			if len(tt.want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "", want: 0},
		{input: "one", want: 1},
		{input: "one\n", want: 1},
		{input: "one\ntwo", want: 2},
		{input: "one\n\nthree", want: 3},
		{input: "\n", want: 1},
		{input: "\n\n", want: 2},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, analysis.CountLines(tt.input), "input %q", tt.input)
	}
}

func TestTopWordsTiePolicy(t *testing.T) {
	tokens := analysis.Tokenize("the cat sat on the mat the cat ran")

	got := analysis.TopWords(tokens, 3)
	require.Equal(t, []analysis.WordFrequency{
		{Word: "the", Count: 3},
		{Word: "cat", Count: 2},
		{Word: "sat", Count: 1},
	}, got)

	all := analysis.TopWords(tokens, 0)
	require.Len(t, all, 6)
	require.Equal(t, []string{"the", "cat", "sat", "on", "mat", "ran"}, words(all))
}

func TestTopWordsBoundedAndSorted(t *testing.T) {
	tokens := analysis.Tokenize("b a c a b a d e f g h i j k l")
	for _, k := range []int{1, 2, 5, 10, 50} {
		got := analysis.TopWords(tokens, k)
		require.LessOrEqual(t, len(got), k)
		for i := 1; i < len(got); i++ {
			require.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
		}
	}
	require.Nil(t, analysis.TopWords(nil, 5))
}

func TestAnalyze(t *testing.T) {
	det := &stubDetector{code: "en"}
	a := analysis.New(det, 3)

	res := a.Analyze("the cat sat on the mat the cat ran")
	require.Equal(t, 9, res.WordCount)
	require.Equal(t, 6, res.UniqueWordCount)
	require.Equal(t, 1, res.LineCount)
	require.Equal(t, "en", res.Language)
	require.Len(t, res.TopWords, 3)
	require.Equal(t, "the", res.TopWords[0].Word)
}

func TestAnalyzeEmpty(t *testing.T) {
	det := &stubDetector{code: "en"}
	a := analysis.New(det, analysis.DefaultTopK)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		res := a.Analyze(text)
		require.Equal(t, 0, res.WordCount)
		require.Equal(t, 0, res.UniqueWordCount)
		require.Empty(t, res.TopWords)
		require.Equal(t, analysis.UnknownLanguage, res.Language)
	}
	require.Zero(t, det.calls, "detector must not run on blank input")
}

func TestDetectLanguageFailures(t *testing.T) {
	require.Equal(t, analysis.UnknownLanguage, analysis.DetectLanguage(nil, "hello world"))
	require.Equal(t, analysis.UnknownLanguage, analysis.DetectLanguage(&stubDetector{err: errors.New("boom")}, "hello"))
	require.Equal(t, analysis.UnknownLanguage, analysis.DetectLanguage(&stubDetector{code: ""}, "hello"))
	require.Equal(t, analysis.UnknownLanguage, analysis.DetectLanguage(panicDetector{}, "hello"))
	require.Equal(t, "fr", analysis.DetectLanguage(&stubDetector{code: "fr"}, "bonjour"))
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := analysis.New(analysis.DefaultDetector(), 5)
	text := "The quick brown fox jumps over the lazy dog. The dog sleeps while the fox runs away into the forest."

	first := a.Analyze(text)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, a.Analyze(text))
	}
	require.Equal(t, "en", first.Language)
}

func TestLinguaDetectorCandidates(t *testing.T) {
	require.Equal(t, "fr", analysis.DetectLanguage(analysis.DefaultDetector(),
		"Bonjour, je m'appelle Marie et j'habite à Paris depuis dix ans avec ma famille."))

	// Only the given candidates are considered.
	d := analysis.NewLinguaDetector(lingua.English, lingua.German)
	require.Equal(t, "de", analysis.DetectLanguage(d, "Das Wetter ist heute sehr schön und wir gehen in den Park."))
}

func TestLinguaDetectorBlank(t *testing.T) {
	require.Equal(t, analysis.UnknownLanguage, analysis.DetectLanguage(analysis.DefaultDetector(), "  \n "))
}

func words(freqs []analysis.WordFrequency) []string {
	out := make([]string, 0, len(freqs))
	for _, f := range freqs {
		out = append(out, f.Word)
	}
	return out
}
