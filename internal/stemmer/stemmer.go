// Package stemmer implements the Porter stemming algorithm and the tokenizer
// used to build stem frequency maps for indexed conversation text.
package stemmer

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of word stems memoized by the package-level
// stemmer.
const DefaultCacheSize = 8192

// minWordLength is the shortest token that is stemmed and indexed.
const minWordLength = 3

type suffixRule struct {
	suffix      string
	replacement string
}

var step2Rules = []suffixRule{
	{"ational", "ate"}, {"tional", "tion"}, {"enci", "ence"},
	{"anci", "ance"}, {"izer", "ize"}, {"isation", "ize"},
	{"ization", "ize"}, {"ation", "ate"}, {"ator", "ate"},
	{"alism", "al"}, {"iveness", "ive"}, {"fulness", "ful"},
	{"ousness", "ous"}, {"aliti", "al"}, {"iviti", "ive"},
	{"biliti", "ble"},
}

var step3Rules = []suffixRule{
	{"icate", "ic"}, {"ative", ""}, {"alize", "al"},
	{"iciti", "ic"}, {"ical", "ic"}, {"ful", ""}, {"ness", ""},
}

var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible",
	"ant", "ement", "ment", "ent", "ion", "ou", "ism",
	"ate", "iti", "ous", "ive", "ize",
}

// Stemmer reduces words to their Porter stem. A Stemmer memoizes results in
// a bounded LRU cache; memoization never changes the output.
type Stemmer struct {
	memo *lru.Cache[string, string]
}

// New creates a Stemmer memoizing up to cacheSize words. A cacheSize of zero
// or less disables memoization.
func New(cacheSize int) *Stemmer {
	s := &Stemmer{}
	if cacheSize > 0 {
		if memo, err := lru.New[string, string](cacheSize); err == nil {
			s.memo = memo
		}
	}
	return s
}

var std = New(DefaultCacheSize)

// Stem returns the Porter stem of word using the package-level stemmer.
func Stem(word string) string { return std.Stem(word) }

// Text tokenizes text and returns its unique stems.
func Text(text string) map[string]struct{} { return std.Text(text) }

// Counts tokenizes text and returns stem frequencies.
func Counts(text string) map[string]int { return std.Counts(text) }

// Query returns the unique stems of a search query.
func Query(query string) map[string]struct{} { return std.Text(query) }

// Stem returns the Porter stem of word. The word is lowercased first; words
// of two letters or fewer are returned unchanged.
func (s *Stemmer) Stem(word string) string {
	word = strings.ToLower(word)
	if len(word) <= 2 {
		return word
	}
	if s.memo != nil {
		if stem, ok := s.memo.Get(word); ok {
			return stem
		}
	}
	stem := porter(word)
	if s.memo != nil {
		s.memo.Add(word, stem)
	}
	return stem
}

// Text tokenizes text and returns the set of stems.
func (s *Stemmer) Text(text string) map[string]struct{} {
	stems := make(map[string]struct{})
	for _, w := range Tokenize(text) {
		stems[s.Stem(w)] = struct{}{}
	}
	return stems
}

// Counts tokenizes text and returns how often each stem occurs.
func (s *Stemmer) Counts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range Tokenize(text) {
		counts[s.Stem(w)]++
	}
	return counts
}

// Tokenize splits text into lowercase runs of ASCII letters, keeping only
// runs of at least three letters. Every other character is a boundary.
func Tokenize(text string) []string {
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minWordLength {
			words = append(words, strings.ToLower(text[start:end]))
		}
		start = -1
	}
	for i := 0; i < len(text); i++ {
		if isLetter(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return words
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func porter(word string) string {
	w := []byte(word)

	// Step 1a
	switch {
	case hasSuffix(w, "sses"), hasSuffix(w, "ies"):
		w = w[:len(w)-2]
	case hasSuffix(w, "ss"):
	case hasSuffix(w, "s"):
		w = w[:len(w)-1]
	}

	// Step 1b
	switch {
	case hasSuffix(w, "eed"):
		if measure(w[:len(w)-3]) > 0 {
			w = w[:len(w)-1]
		}
	case hasSuffix(w, "ed"):
		w = step1bStrip(w, 2)
	case hasSuffix(w, "ing"):
		w = step1bStrip(w, 3)
	}

	// Step 1c
	if hasSuffix(w, "y") && hasVowel(w[:len(w)-1]) {
		w = append(w[:len(w)-1:len(w)-1], 'i')
	}

	w = replaceFirst(w, step2Rules)
	w = replaceFirst(w, step3Rules)

	// Step 4
	for _, suffix := range step4Suffixes {
		if !hasSuffix(w, suffix) {
			continue
		}
		stem := w[:len(w)-len(suffix)]
		if measure(stem) > 1 {
			if suffix != "ion" || (len(stem) > 0 && (stem[len(stem)-1] == 's' || stem[len(stem)-1] == 't')) {
				w = stem
			}
		}
		break
	}

	// Step 5a
	if hasSuffix(w, "e") {
		stem := w[:len(w)-1]
		m := measure(stem)
		if m > 1 || (m == 1 && !endsCVC(stem)) {
			w = stem
		}
	}

	// Step 5b
	if measure(w) > 1 && endsDoubleConsonant(w) && hasSuffix(w, "l") {
		w = w[:len(w)-1]
	}

	return string(w)
}

func step1bStrip(w []byte, n int) []byte {
	stem := w[:len(w)-n]
	if !hasVowel(stem) {
		return w
	}
	w = stem
	switch {
	case hasSuffix(w, "at"), hasSuffix(w, "bl"), hasSuffix(w, "iz"):
		w = append(w[:len(w):len(w)], 'e')
	case endsDoubleConsonant(w) && !strings.ContainsRune("lsz", rune(w[len(w)-1])):
		w = w[:len(w)-1]
	case measure(w) == 1 && endsCVC(w):
		w = append(w[:len(w):len(w)], 'e')
	}
	return w
}

// replaceFirst applies the first rule whose suffix matches. The rule is
// consumed even when the measure condition fails.
func replaceFirst(w []byte, rules []suffixRule) []byte {
	for _, r := range rules {
		if !hasSuffix(w, r.suffix) {
			continue
		}
		stem := w[:len(w)-len(r.suffix)]
		if measure(stem) > 0 {
			out := make([]byte, 0, len(stem)+len(r.replacement))
			out = append(out, stem...)
			return append(out, r.replacement...)
		}
		return w
	}
	return w
}

func hasSuffix(w []byte, suffix string) bool {
	return len(w) >= len(suffix) && string(w[len(w)-len(suffix):]) == suffix
}

func isConsonant(w []byte, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		return i == 0 || !isConsonant(w, i-1)
	}
	return true
}

// measure counts vowel-to-consonant transitions after the optional leading
// consonant run.
func measure(w []byte) int {
	n := len(w)
	i := 0
	for i < n && isConsonant(w, i) {
		i++
	}
	m := 0
	for i < n {
		for i < n && !isConsonant(w, i) {
			i++
		}
		if i >= n {
			break
		}
		m++
		for i < n && isConsonant(w, i) {
			i++
		}
	}
	return m
}

func hasVowel(w []byte) bool {
	for i := range w {
		if !isConsonant(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(w []byte) bool {
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && isConsonant(w, n-1)
}

func endsCVC(w []byte) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	last := w[n-1]
	return isConsonant(w, n-3) && !isConsonant(w, n-2) && isConsonant(w, n-1) &&
		last != 'w' && last != 'x' && last != 'y'
}
