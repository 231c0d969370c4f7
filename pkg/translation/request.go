package translation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// MaxTextLength bounds the size of a single translation input in characters.
	MaxTextLength = 5000
	// DefaultDomain selects the adapter set used when a request names none.
	DefaultDomain = "hotel_domain"
)

// ErrValidation is returned when a request fails structural validation.
// Callers should treat it as a client error rather than a backend failure.
var ErrValidation = errors.New("invalid request")

// languageCodePattern matches lowercase two-letter ISO 639-1 codes.
var languageCodePattern = regexp.MustCompile(`^[a-z]{2}$`)

// Request carries one translation job through the pipeline.
// Source and Target are ISO 639-1 codes; the catalog resolves them to
// model locale identifiers.
type Request struct {
	Text    string     `json:"text"`
	Source  string     `json:"source_language"`
	Target  string     `json:"target_language"`
	Domain  string     `json:"domain,omitempty"`
	Quality Preference `json:"quality_preference,omitempty"`

	// UseCache is a pointer so an absent field defaults to true.
	UseCache *bool `json:"use_cache,omitempty"`
}

// CacheEnabled reports whether the request allows cache lookups and writes.
func (r Request) CacheEnabled() bool {
	return r.UseCache == nil || *r.UseCache
}

// normalized returns a copy of the request with defaults applied.
func (r Request) normalized() Request {
	if r.Domain == "" {
		r.Domain = DefaultDomain
	}
	if r.Quality == "" {
		r.Quality = PreferenceBalanced
	}
	return r
}

// Validate checks the structural constraints on the request.
// Language support is checked separately against the catalog.
func (r Request) Validate() error {
	if len(r.Text) == 0 {
		return fmt.Errorf("%w: text must not be empty", ErrValidation)
	}
	// The bound counts characters, not bytes.
	if utf8.RuneCountInString(r.Text) > MaxTextLength {
		return fmt.Errorf("%w: text exceeds %d characters", ErrValidation, MaxTextLength)
	}
	if !languageCodePattern.MatchString(r.Source) {
		return fmt.Errorf("%w: source_language must be a two-letter ISO 639-1 code", ErrValidation)
	}
	if !languageCodePattern.MatchString(r.Target) {
		return fmt.Errorf("%w: target_language must be a two-letter ISO 639-1 code", ErrValidation)
	}
	if !r.Quality.Valid() {
		return fmt.Errorf("%w: quality_preference must be one of fast, balanced or accurate", ErrValidation)
	}
	return nil
}
