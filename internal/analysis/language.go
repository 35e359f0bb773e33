package analysis

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// ErrNoLanguage is returned by a Detector that cannot name a language.
var ErrNoLanguage = errors.New("no language detected")

// Detector names the language of a text as a lower case ISO 639-1 code.
type Detector interface {
	Detect(text string) (string, error)
}

// DetectLanguage runs d over text and folds every failure, including a
// panicking detector, into UnknownLanguage.
func DetectLanguage(d Detector, text string) (lang string) {
	if d == nil || strings.TrimSpace(text) == "" {
		return UnknownLanguage
	}
	defer func() {
		if recover() != nil {
			lang = UnknownLanguage
		}
	}()
	code, err := d.Detect(text)
	if err != nil || code == "" {
		return UnknownLanguage
	}
	return code
}

// LinguaDetector detects languages with lingua-go. Its results are
// deterministic for a given input.
type LinguaDetector struct {
	once      sync.Once
	languages []lingua.Language
	detector  lingua.LanguageDetector
}

// CommonLanguages are the candidates of the default detector. Loading every
// lingua model takes seconds and several hundred megabytes.
var CommonLanguages = []lingua.Language{
	lingua.English, lingua.French, lingua.German, lingua.Spanish, lingua.Portuguese,
	lingua.Italian, lingua.Dutch, lingua.Swedish, lingua.Polish, lingua.Russian,
	lingua.Ukrainian, lingua.Turkish, lingua.Arabic, lingua.Hindi, lingua.Chinese,
	lingua.Japanese, lingua.Korean, lingua.Indonesian, lingua.Vietnamese,
}

// NewLinguaDetector returns a detector choosing among languages, or among
// CommonLanguages when none are given. Models are loaded on first use.
func NewLinguaDetector(languages ...lingua.Language) *LinguaDetector {
	if len(languages) == 0 {
		languages = CommonLanguages
	}
	return &LinguaDetector{languages: languages}
}

func (d *LinguaDetector) Detect(text string) (string, error) {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(d.languages...).
			Build()
	})
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", ErrNoLanguage
	}
	code := strings.ToLower(language.IsoCode639_1().String())
	if code == "" {
		return "", fmt.Errorf("language %s has no ISO 639-1 code", language)
	}
	return code, nil
}

var (
	defaultDetectorOnce sync.Once
	defaultDetector     *LinguaDetector
)

// DefaultDetector returns the process-wide lingua detector.
func DefaultDetector() *LinguaDetector {
	defaultDetectorOnce.Do(func() {
		defaultDetector = NewLinguaDetector()
	})
	return defaultDetector
}
