package gapengine

import (
	"regexp"
	"strings"
)

// docContext is the document-side signal a phrase is classified within.
type docContext struct {
	Title   string
	URL     string
	Snippet string
}

// snippetLimit bounds how much body text feeds intent detection; the
// opening of a page carries most of its intent signal.
const snippetLimit = 1000

func newDocContext(doc *ExtractedDocument) docContext {
	if doc == nil {
		return docContext{}
	}
	snippet := doc.Body
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return docContext{
		Title:   foldTerm(doc.Title),
		URL:     strings.ToLower(doc.URL),
		Snippet: foldTerm(snippet),
	}
}

type compiledSignals struct {
	intent        SearchIntent
	keywords      []string
	urlPatterns   []*regexp.Regexp
	titlePatterns []string
	weight        float64
}

// intentClassifier scores phrases against per-category signal bundles.
// Built once at engine construction; immutable after.
type intentClassifier struct {
	signals     []compiledSignals
	boostTerms  []string
	boostPoints float64
	localBoost  float64
}

func newIntentClassifier(cfg *Config) (*intentClassifier, error) {
	cls := &intentClassifier{
		boostTerms:  foldAll(cfg.TransactionalBoostTerms),
		boostPoints: cfg.TransactionalBoostPoints,
		localBoost:  cfg.LocalTransactionalBoost,
	}
	for _, intent := range []SearchIntent{
		IntentInformational, IntentTransactional, IntentLocal, IntentComparison, IntentNavigational,
	} {
		bundle, ok := cfg.IntentSignals[intent]
		if !ok {
			continue
		}
		// Signal terms fold like tokens do, so a keyword spelled with a
		// diacritic (آموزش, café) still matches a tokenized phrase.
		compiled := compiledSignals{
			intent:        intent,
			keywords:      foldAll(bundle.Keywords),
			titlePatterns: foldAll(bundle.TitlePatterns),
			weight:        bundle.Weight,
		}
		for _, pat := range bundle.URLPatterns {
			re, err := regexp.Compile(`(?i)` + pat)
			if err != nil {
				return nil, err
			}
			compiled.urlPatterns = append(compiled.urlPatterns, re)
		}
		cls.signals = append(cls.signals, compiled)
	}
	return cls, nil
}

// classify picks the highest-scoring intent for a phrase in its document
// context. When every category scores zero it falls back to informational
// with confidence 0.5; ties break on the fixed category priority so the
// result is deterministic.
func (cls *intentClassifier) classify(phrase string, ctx docContext) (SearchIntent, float64) {
	text := " " + phrase + " " + ctx.Title + " " + ctx.Snippet + " "

	scores := make(map[SearchIntent]float64, len(cls.signals))
	for _, sig := range cls.signals {
		score := 0.0
		for _, kw := range sig.keywords {
			if strings.Contains(text, kw) {
				score += sig.weight
			}
		}
		for _, re := range sig.urlPatterns {
			if re.MatchString(ctx.URL) {
				score += 2.0 * sig.weight
			}
		}
		for _, pat := range sig.titlePatterns {
			if strings.Contains(ctx.Title, pat) {
				score += 1.5 * sig.weight
			}
		}
		scores[sig.intent] = score
	}

	for _, term := range cls.boostTerms {
		if strings.Contains(text, term) {
			scores[IntentTransactional] += cls.boostPoints
			break
		}
	}
	// Local searches with purchase signals usually convert; nudge local
	// above plain transactional when both fire.
	if scores[IntentLocal] > 0 && scores[IntentTransactional] > 0 {
		scores[IntentLocal] += cls.localBoost
	}

	best := IntentInformational
	bestScore := 0.0
	total := 0.0
	for intent, score := range scores {
		total += score
		if score > bestScore ||
			(score == bestScore && score > 0 && intentTiePriority(intent) > intentTiePriority(best)) {
			best = intent
			bestScore = score
		}
	}

	if bestScore == 0 {
		return IntentInformational, 0.5
	}
	confidence := bestScore / total
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence
}
