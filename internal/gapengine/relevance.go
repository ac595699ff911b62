package gapengine

import "strings"

// Relevance score contributions, capped at 100 in total.
const (
	relevanceServicePoints   = 30.0
	relevanceProductPoints   = 25.0
	relevanceNichePerWord    = 10.0
	relevanceNicheMaxMatches = 3
	relevanceLocationPoints  = 15.0
)

// relevanceScorer scores phrase alignment with the business context.
// Brand matches do not score; they are flagged so branded navigational
// noise can be kept out of the gap set later.
type relevanceScorer struct {
	services   []string
	products   []string
	nicheWords []string
	locations  []string
	brand      *phraseMatcher
	empty      bool
}

func newRelevanceScorer(biz *BusinessContext) *relevanceScorer {
	if biz == nil {
		return &relevanceScorer{empty: true, brand: newPhraseMatcher(nil)}
	}
	// Context terms fold the way tokens do; without this a term carrying
	// a diacritic could never match any phrase.
	return &relevanceScorer{
		services:   foldAll(biz.Services),
		products:   foldAll(biz.Products),
		nicheWords: nicheTerms(biz),
		locations:  foldAll(biz.TargetLocations),
		brand:      newPhraseMatcher(foldAll(biz.BrandKeywords)),
		empty:      biz.IsEmpty() && len(biz.TargetLocations) == 0,
	}
}

// nicheTerms returns the distinct words of the niche. When the niche is
// blank the offering terms stand in for it, so a context that only lists
// services still separates on-topic phrases from noise.
func nicheTerms(biz *BusinessContext) []string {
	source := strings.Fields(biz.Niche)
	if len(source) == 0 {
		for _, s := range biz.Services {
			source = append(source, strings.Fields(s)...)
		}
		for _, p := range biz.Products {
			source = append(source, strings.Fields(p)...)
		}
	}
	seen := make(map[string]bool, len(source))
	out := make([]string, 0, len(source))
	for _, w := range source {
		w = foldTerm(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// score returns relevance_to_business in [0,100] for a phrase, plus
// whether the phrase matches a brand keyword.
func (r *relevanceScorer) score(phrase string) (float64, bool) {
	branded := r.brand.Matches(phrase)
	if r.empty {
		return 0, branded
	}

	score := 0.0
	for _, service := range r.services {
		if containsEither(phrase, service) {
			score += relevanceServicePoints
			break
		}
	}
	for _, product := range r.products {
		if containsEither(phrase, product) {
			score += relevanceProductPoints
			break
		}
	}

	matches := 0
	for _, word := range r.nicheWords {
		if containsWord(phrase, word) {
			matches++
			if matches == relevanceNicheMaxMatches {
				break
			}
		}
	}
	score += float64(matches) * relevanceNichePerWord

	for _, loc := range r.locations {
		if containsEither(phrase, loc) {
			score += relevanceLocationPoints
			break
		}
	}

	if score > 100 {
		score = 100
	}
	return score, branded
}

// containsEither reports whether either string contains the other.
func containsEither(phrase, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(phrase, term) || strings.Contains(term, phrase)
}

func containsWord(phrase, word string) bool {
	return strings.Contains(" "+phrase+" ", " "+word+" ")
}
