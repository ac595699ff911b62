package gapengine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latinMarks covers the combining-diacritic blocks used with Latin base
// letters. Arabic-script marks (madda, hamza, harakat) stay outside this
// table: there the mark is letter-forming, and stripping it changes the
// word (آن -> ان, زائد -> زايد).
var latinMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0300, Hi: 0x036f, Stride: 1},
		{Lo: 0x1ab0, Hi: 0x1aff, Stride: 1},
		{Lo: 0x1dc0, Hi: 0x1dff, Stride: 1},
	},
}

var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(latinMarks)), norm.NFC)

// foldTerm normalizes one term exactly the way document tokens are
// normalized: Latin diacritics stripped (café -> cafe), then lower-cased.
// Every term set matched against tokens (stop words, intent signals,
// business-context terms) must pass through this at construction time so
// lookups compare like with like.
func foldTerm(s string) string {
	folded, _, err := transform.String(foldTransform, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = foldTerm(s)
	}
	return out
}

func foldSet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for w := range set {
		out[foldTerm(w)] = true
	}
	return out
}

// Tokenizer splits raw text into normalized word tokens and filters the
// configured stop-word sets. It is deterministic: identical input and
// configuration always yield an identical token sequence.
type Tokenizer struct {
	stopWords      []map[string]bool
	minTokenLength int
}

// NewTokenizer builds a tokenizer from the configured stop-word sets.
// The sets are keyed by script name purely for configuration; at lookup
// time all active sets are consulted. Set entries are folded on the way
// in so a stop word spelled with a diacritic still filters its token.
func NewTokenizer(cfg *Config) *Tokenizer {
	sets := make([]map[string]bool, 0, len(cfg.StopWords))
	for _, name := range sortedKeys(cfg.StopWords) {
		sets = append(sets, foldSet(cfg.StopWords[name]))
	}
	minLen := cfg.MinTokenLength
	if minLen < 1 {
		minLen = 1
	}
	return &Tokenizer{
		stopWords:      sets,
		minTokenLength: minLen,
	}
}

// Tokenize returns the ordered, filtered token sequence for text. Empty
// or whitespace-only input yields an empty (nil) sequence, not an error.
func (t *Tokenizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	raw := strings.FieldsFunc(foldTerm(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if t.keep(w) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// keep reports whether a normalized token survives filtering. Tokens with
// digits are dropped: numbers alone are never useful search phrases here.
func (t *Tokenizer) keep(word string) bool {
	if len([]rune(word)) < t.minTokenLength {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	for _, set := range t.stopWords {
		if set[word] {
			return false
		}
	}
	return true
}

// IsStopWord reports whether the word is in any active stop-word set.
func (t *Tokenizer) IsStopWord(word string) bool {
	word = foldTerm(word)
	for _, set := range t.stopWords {
		if set[word] {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort; the map holds a handful of scripts at most
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
