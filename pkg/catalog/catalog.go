package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedLanguage is returned when a language code has no model mapping.
// Callers should treat it as a client error rather than a backend failure.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// languageIDs maps ISO 639-1 codes to the locale identifiers the mBART-50
// checkpoint was trained with. The model rejects anything outside this table,
// so the table is the single source of truth for what the service supports.
var languageIDs = map[string]string{
	"en": "en_XX",
	"es": "es_XX",
	"fr": "fr_XX",
	"de": "de_DE",
	"zh": "zh_CN",
	"ja": "ja_XX",
	"ar": "ar_AR",
	"ru": "ru_RU",
	"pt": "pt_XX",
	"it": "it_IT",
	"ko": "ko_KR",
	"hi": "hi_IN",
	"tr": "tr_TR",
	"vi": "vi_VN",
	"th": "th_TH",
}

// Resolve returns the model locale identifier for an ISO 639-1 code.
// Unknown codes return ErrUnsupportedLanguage wrapped with the offending code.
func Resolve(code string) (string, error) {
	id, ok := languageIDs[code]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, code)
	}
	return id, nil
}

// Supported reports whether code has a model mapping.
func Supported(code string) bool {
	_, ok := languageIDs[code]
	return ok
}

// Codes returns the supported ISO 639-1 codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(languageIDs))
	for code := range languageIDs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Mapping returns a copy of the full code-to-identifier table.
// Mutating the returned map does not affect the catalog.
func Mapping() map[string]string {
	m := make(map[string]string, len(languageIDs))
	for code, id := range languageIDs {
		m[code] = id
	}
	return m
}
