package gapengine

import (
	"reflect"
	"testing"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	cfg := DefaultConfig()
	return NewTokenizer(&cfg)
}

func TestTokenizeNormalizesAndFilters(t *testing.T) {
	tok := newTestTokenizer(t)

	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases_and_splits_punctuation",
			input: "Laser Hair-Removal, Tehran!",
			want:  []string{"laser", "hair", "removal", "tehran"},
		},
		{
			name:  "drops_stop_words",
			input: "the best clinic in the city",
			want:  []string{"best", "clinic", "city"},
		},
		{
			name:  "drops_short_and_numeric_tokens",
			input: "a 24 7 laser clinic v2",
			want:  []string{"laser", "clinic"},
		},
		{
			name:  "folds_diacritics",
			input: "café résumé",
			want:  []string{"cafe", "resume"},
		},
		{
			name:  "filters_persian_stop_words",
			input: "لیزر موهای زائد در تهران",
			want:  []string{"لیزر", "موهای", "زائد", "تهران"},
		},
		{
			// Madda and hamza are letter-forming, not diacritics:
			// folding must leave آ and ئ intact.
			name:  "keeps_arabic_letter_forms",
			input: "آموزش لیزر موهای زائد",
			want:  []string{"آموزش", "لیزر", "موهای", "زائد"},
		},
		{
			name:  "filters_persian_stop_words_spelled_with_madda",
			input: "آن لیزر آسان",
			want:  []string{"لیزر"},
		},
		{
			name:  "empty_input",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace_only",
			input: "   \t\n  ",
			want:  nil,
		},
		{
			name:  "all_stop_words",
			input: "the and of to",
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tok.Tokenize(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFoldTermMatchesTokenNormalization(t *testing.T) {
	tok := newTestTokenizer(t)

	// Terms matched against tokens must land on the exact token spelling,
	// whether the source text carried diacritics or not.
	cases := []struct{ term, text string }{
		{"café", "visit our Café today"},
		{"آموزش", "آموزش لیزر"},
		{"résumé", "resume writing tips"},
	}
	for _, tc := range cases {
		tokens := tok.Tokenize(tc.text)
		want := foldTerm(tc.term)
		found := false
		for _, token := range tokens {
			if token == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("foldTerm(%q) = %q not found in Tokenize(%q) = %v", tc.term, want, tc.text, tokens)
		}
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	tok := newTestTokenizer(t)
	input := "Quality laser hair removal services near you in Tehran"

	first := tok.Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := tok.Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Tokenize diverged: %v vs %v", i, got, first)
		}
	}
}

func TestTokenizerSwappableStopWordSets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StopWords = map[string]map[string]bool{
		"latin": wordSet("laser"),
	}
	tok := NewTokenizer(&cfg)

	got := tok.Tokenize("the laser clinic")
	want := []string{"the", "clinic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize with custom stop words = %v, want %v", got, want)
	}
	if !tok.IsStopWord("laser") {
		t.Fatalf("expected laser to be a stop word in custom set")
	}
}
