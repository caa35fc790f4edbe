package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguage is returned whenever detection fails or is ambiguous.
const DefaultLanguage = "English"

// Detector maps free text to a human-readable language name using
// statistical detection over a fixed set of recognized languages.
type Detector struct {
	detector lingua.LanguageDetector
}

// recognizedLanguages is the closed set the detector distinguishes between.
var recognizedLanguages = []lingua.Language{
	lingua.Afrikaans, lingua.Albanian, lingua.Arabic, lingua.Azerbaijani,
	lingua.Bengali, lingua.Bulgarian, lingua.Catalan, lingua.Chinese,
	lingua.Croatian, lingua.Czech, lingua.Danish, lingua.Dutch,
	lingua.English, lingua.Estonian, lingua.Finnish, lingua.French,
	lingua.German, lingua.Greek, lingua.Gujarati, lingua.Hebrew,
	lingua.Hindi, lingua.Hungarian, lingua.Icelandic, lingua.Indonesian,
	lingua.Italian, lingua.Japanese, lingua.Kazakh, lingua.Korean,
	lingua.Latvian, lingua.Lithuanian, lingua.Macedonian, lingua.Malay,
	lingua.Marathi, lingua.Mongolian, lingua.Persian, lingua.Polish,
	lingua.Portuguese, lingua.Punjabi, lingua.Romanian, lingua.Russian,
	lingua.Serbian, lingua.Slovak, lingua.Slovene, lingua.Somali,
	lingua.Spanish, lingua.Swahili, lingua.Swedish, lingua.Tamil,
	lingua.Telugu, lingua.Thai, lingua.Turkish, lingua.Ukrainian,
	lingua.Urdu, lingua.Vietnamese, lingua.Welsh,
}

// NewDetector builds a detector over the recognized language set.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(recognizedLanguages...).
			Build(),
	}
}

// Detect returns the language name for the given text, or DefaultLanguage
// when the text is empty or detection is inconclusive. Never fails.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultLanguage
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return DefaultLanguage
	}
	return lang.String()
}
