package gapengine

// docExtraction pairs one document with its candidate set and TF bucket
// totals. Produced independently per document during fan-out.
type docExtraction struct {
	URL    string
	Set    *candidateSet
	Totals map[int]int
}

func extractDoc(e *extractor, doc *ExtractedDocument) *docExtraction {
	set := e.extract(doc)
	url := ""
	if doc != nil {
		url = doc.URL
	}
	return &docExtraction{URL: url, Set: set, Totals: bucketTotals(set)}
}

func (d *docExtraction) tfidfOf(c *candidate, corpus *corpusStats) float64 {
	return tf(c, d.Totals) * corpus.idf(c.Phrase)
}

// gapPhrase aggregates one gap across every competitor that covers it.
// FirstDoc is the index (into the competitor extraction list) of the
// first document covering the phrase; it keys the document context for
// intent classification, since URLs are not guaranteed unique.
type gapPhrase struct {
	Phrase         string
	NgramSize      int
	FirstDoc       int
	TotalFrequency int
	Competitors    []CompetitorPresence
	Sources        []SourceField
	BestTF         float64
	BestTFIDF      float64
	AvgPosition    float64
}

// detectGaps compares the own-site candidate set against each competitor
// set. A phrase is a gap when at least one competitor covers it with
// tfidf above epsilon and the own site either lacks it or holds it at
// less than ratio x the best competitor strength.
//
// Gaps come back in first-discovery order across the competitor list,
// which keeps downstream scoring deterministic.
func detectGaps(own *docExtraction, competitors []*docExtraction, corpus *corpusStats, epsilon, ratio float64) []*gapPhrase {
	byPhrase := make(map[string]*gapPhrase)
	var ordered []*gapPhrase

	for i, comp := range competitors {
		if comp == nil || comp.Set == nil {
			continue
		}
		for _, cand := range comp.Set.ordered {
			strength := comp.tfidfOf(cand, corpus)
			if strength <= epsilon {
				continue
			}
			gp, ok := byPhrase[cand.Phrase]
			if !ok {
				gp = &gapPhrase{Phrase: cand.Phrase, NgramSize: cand.NgramSize, FirstDoc: i}
				byPhrase[cand.Phrase] = gp
				ordered = append(ordered, gp)
			}
			gp.TotalFrequency += cand.Count
			gp.Competitors = append(gp.Competitors, CompetitorPresence{
				URL:        comp.URL,
				Position:   float64(cand.Position),
				TFIDFScore: strength,
				Frequency:  cand.Count,
			})
			for _, src := range cand.Sources {
				if !hasSource(gp.Sources, src) {
					gp.Sources = append(gp.Sources, src)
				}
			}
			if strength > gp.BestTFIDF {
				gp.BestTFIDF = strength
				gp.BestTF = tf(cand, comp.Totals)
			}
		}
	}

	out := make([]*gapPhrase, 0, len(ordered))
	for _, gp := range ordered {
		if !passesGapTest(gp, own, corpus, ratio) {
			continue
		}
		total := 0.0
		for _, cp := range gp.Competitors {
			total += cp.Position
		}
		gp.AvgPosition = total / float64(len(gp.Competitors))
		out = append(out, gp)
	}
	return out
}

func passesGapTest(gp *gapPhrase, own *docExtraction, corpus *corpusStats, ratio float64) bool {
	if own == nil || own.Set == nil {
		return true
	}
	cand, ok := own.Set.byPhrase[gp.Phrase]
	if !ok {
		return true
	}
	ownStrength := own.tfidfOf(cand, corpus)
	return ownStrength < ratio*gp.BestTFIDF
}
