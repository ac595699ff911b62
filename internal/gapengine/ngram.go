package gapengine

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// candidate is one deduplicated phrase extracted from a single document.
type candidate struct {
	Phrase    string
	NgramSize int
	Count     int
	Sources   []SourceField
	// Position is the 1-based discovery order of the phrase within its
	// document: 1 = first distinct phrase produced by extraction. It is
	// the proxy behind competitor_avg_position, not a real SERP rank.
	Position int
}

// candidateSet holds every valid candidate of one document, in discovery
// order.
type candidateSet struct {
	byPhrase map[string]*candidate
	ordered  []*candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byPhrase: make(map[string]*candidate)}
}

func (s *candidateSet) add(phrase string, size int, source SourceField) {
	if c, ok := s.byPhrase[phrase]; ok {
		c.Count++
		if !hasSource(c.Sources, source) {
			c.Sources = append(c.Sources, source)
		}
		return
	}
	c := &candidate{
		Phrase:    phrase,
		NgramSize: size,
		Count:     1,
		Sources:   []SourceField{source},
		Position:  len(s.ordered) + 1,
	}
	s.byPhrase[phrase] = c
	s.ordered = append(s.ordered, c)
}

func (s *candidateSet) len() int { return len(s.ordered) }

func hasSource(sources []SourceField, source SourceField) bool {
	for _, s := range sources {
		if s == source {
			return true
		}
	}
	return false
}

// phraseMatcher answers whole-word containment questions against a fixed
// term set. Terms and phrases are compared space-padded so that "free"
// matches inside "free consultation" but not inside "freedom".
type phraseMatcher struct {
	matcher *ahocorasick.Matcher
	empty   bool
}

func newPhraseMatcher(terms []string) *phraseMatcher {
	if len(terms) == 0 {
		return &phraseMatcher{empty: true}
	}
	padded := make([]string, len(terms))
	for i, t := range terms {
		padded[i] = " " + t + " "
	}
	return &phraseMatcher{matcher: ahocorasick.NewStringMatcher(padded)}
}

// Matches reports whether any term occurs in the phrase on word
// boundaries (which covers exact equality as well).
func (m *phraseMatcher) Matches(phrase string) bool {
	if m.empty {
		return false
	}
	return m.matcher.Contains([]byte(" " + phrase + " "))
}

// extractor produces the candidate-phrase set of one document. It is
// read-only after construction and safe to share across workers.
type extractor struct {
	tokenizer *Tokenizer
	excluded  *phraseMatcher
}

func newExtractor(tok *Tokenizer, biz *BusinessContext) *extractor {
	var excluded []string
	if biz != nil {
		// Excluded terms fold like tokens do, so "café" blocks "cafe"
		// phrases too.
		excluded = foldAll(biz.ExcludedKeywords)
	}
	return &extractor{tokenizer: tok, excluded: newPhraseMatcher(excluded)}
}

// extract runs exhaustive n-gram windowing (n = 1..5) over every text
// source of the document. Every valid window is produced exactly once
// per occurrence; duplicates merge by phrase, keeping the union of
// source fields and the total occurrence count.
func (e *extractor) extract(doc *ExtractedDocument) *candidateSet {
	set := newCandidateSet()
	if doc == nil {
		return set
	}

	e.extractField(set, doc.Title, SourceTitle)
	e.extractField(set, doc.MetaDescription, SourceMeta)
	for _, h := range doc.Headings {
		e.extractField(set, h.Text, SourceHeading)
	}
	e.extractField(set, doc.Body, SourceBody)
	e.extractField(set, strings.Join(doc.PathTokens, " "), SourceURL)

	return set
}

func (e *extractor) extractField(set *candidateSet, text string, source SourceField) {
	tokens := e.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return
	}
	maxN := maxNgramSize
	if len(tokens) < maxN {
		maxN = len(tokens)
	}
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if e.excluded.Matches(phrase) {
				continue
			}
			set.add(phrase, n, source)
		}
	}
}
