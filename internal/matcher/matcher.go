// Package matcher detects brand mentions in free text.
package matcher

import (
	"regexp"
	"strings"
	"sync"
)

// boundary matches the start/end of text or any rune that cannot be part of a word
const boundary = `[^\p{L}\p{N}_]`

// maxCachedPatterns bounds the compiled pattern cache
const maxCachedPatterns = 512

var cache = struct {
	sync.RWMutex
	patterns map[string]*regexp.Regexp
}{patterns: make(map[string]*regexp.Regexp)}

// Matcher finds a fixed list of brands in any number of texts
type Matcher struct {
	brands   []string
	patterns []*regexp.Regexp
}

// New compiles brands once for reuse across texts
func New(brands []string) *Matcher {
	m := &Matcher{brands: Normalize(brands)}
	m.patterns = make([]*regexp.Regexp, len(m.brands))
	for i, brand := range m.brands {
		m.patterns[i] = pattern(brand)
	}
	return m
}

// Find returns the brands mentioned in text as whole words, ignoring case.
// The result keeps the list order and never repeats a brand.
func (m *Matcher) Find(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}

	for i, p := range m.patterns {
		if p.MatchString(text) {
			found = append(found, m.brands[i])
		}
	}
	return found
}

// FindBrands returns the brands mentioned in text as whole words, ignoring case.
// The result keeps the input order and never repeats a brand.
func FindBrands(text string, brands []string) []string {
	if strings.TrimSpace(text) == "" || len(brands) == 0 {
		return []string{}
	}
	return New(brands).Find(text)
}

// Mentions reports whether a single brand appears in text as a whole word
func Mentions(text, brand string) bool {
	brand = strings.TrimSpace(brand)
	if brand == "" || text == "" {
		return false
	}
	return pattern(brand).MatchString(text)
}

// pattern returns the compiled whole-word pattern of brand, caching it
func pattern(brand string) *regexp.Regexp {
	key := strings.ToLower(brand)

	cache.RLock()
	p, ok := cache.patterns[key]
	cache.RUnlock()
	if ok {
		return p
	}

	// Brand names are quoted so "Monday.com" or "C++" match literally
	p = regexp.MustCompile(`(?i)(?:^|` + boundary + `)` + regexp.QuoteMeta(brand) + `(?:$|` + boundary + `)`)

	cache.Lock()
	if len(cache.patterns) >= maxCachedPatterns {
		cache.patterns = make(map[string]*regexp.Regexp)
	}
	cache.patterns[key] = p
	cache.Unlock()
	return p
}

// Normalize trims brand names, drops empty ones and removes duplicates
// that differ only in case, keeping the first spelling seen.
func Normalize(brands []string) []string {
	seen := make(map[string]bool, len(brands))
	var unique []string

	for _, brand := range brands {
		brand = strings.TrimSpace(brand)
		if brand == "" {
			continue
		}
		key := strings.ToLower(brand)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, brand)
	}

	return unique
}

// Contains reports whether brands holds brand, ignoring case
func Contains(brands []string, brand string) bool {
	for _, b := range brands {
		if strings.EqualFold(strings.TrimSpace(b), strings.TrimSpace(brand)) {
			return true
		}
	}
	return false
}
