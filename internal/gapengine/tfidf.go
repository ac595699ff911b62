package gapengine

import "math"

// corpusStats holds phrase document-frequency across the whole corpus
// (own document plus every competitor that extracted successfully).
type corpusStats struct {
	docCount int
	docFreq  map[string]int
}

func buildCorpus(sets []*candidateSet) *corpusStats {
	stats := &corpusStats{docFreq: make(map[string]int)}
	for _, set := range sets {
		if set == nil {
			continue
		}
		stats.docCount++
		for phrase := range set.byPhrase {
			stats.docFreq[phrase]++
		}
	}
	return stats
}

// idf is smoothed so it stays positive for every phrase and decreases
// monotonically as document coverage grows.
func (c *corpusStats) idf(phrase string) float64 {
	df := c.docFreq[phrase]
	return math.Log(float64(1+c.docCount)/float64(1+df)) + 1
}

// bucketTotals sums candidate occurrences per ngram-size bucket. TF is
// normalized within the bucket so unigram counts do not dominate longer
// phrases.
func bucketTotals(set *candidateSet) map[int]int {
	totals := make(map[int]int, maxNgramSize)
	for _, c := range set.ordered {
		totals[c.NgramSize] += c.Count
	}
	return totals
}

// tf returns the bucket-normalized term frequency for one candidate.
func tf(c *candidate, totals map[int]int) float64 {
	total := totals[c.NgramSize]
	if total == 0 {
		return 0
	}
	return float64(c.Count) / float64(total)
}

// estimateSearchVolume is a heuristic proxy for monthly demand, derived
// only from local frequency and competitor presence. Higher raw frequency
// and broader competitor coverage both raise the estimate monotonically.
// It is not measured traffic and must never be presented as such.
func estimateSearchVolume(totalFrequency, competitorsContaining int) int {
	if totalFrequency < 0 {
		totalFrequency = 0
	}
	if competitorsContaining < 0 {
		competitorsContaining = 0
	}
	return totalFrequency * (competitorsContaining + 1) * 10
}
