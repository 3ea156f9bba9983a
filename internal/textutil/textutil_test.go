package textutil

import "testing"

func TestTokenizeFiltersStopWords(t *testing.T) {
	tokens := Tokenize("Get the best deal for your team now!")
	for _, tok := range tokens {
		if tok == "the" || tok == "for" || tok == "your" {
			t.Fatalf("stop word %q survived tokenization: %v", tok, tokens)
		}
	}
	if len(tokens) == 0 {
		t.Fatal("expected content tokens, got none")
	}
}

func TestOverlapRatio(t *testing.T) {
	if got := OverlapRatio("", "anything"); got != 0 {
		t.Fatalf("empty source should yield 0, got %v", got)
	}

	got := OverlapRatio("start free trial", "start your free trial today")
	if got < 0.99 {
		t.Fatalf("full overlap expected ~1.0, got %v", got)
	}

	got = OverlapRatio("download report", "pricing plans")
	if got != 0 {
		t.Fatalf("disjoint texts expected 0, got %v", got)
	}
}

func TestOverlapRatioFuzzyMatch(t *testing.T) {
	// "templates" vs "template" differ by one edit and should match.
	got := OverlapRatio("browse templates", "template gallery for browsing")
	if got < 0.49 {
		t.Fatalf("expected fuzzy match to count, got %v", got)
	}
}

func TestContainsAny(t *testing.T) {
	ok, hits := ContainsAny("SSL secured checkout with money-back guarantee", []string{"ssl", "guarantee", "badge"})
	if !ok || hits != 2 {
		t.Fatalf("expected 2 keyword hits, got ok=%v hits=%d", ok, hits)
	}
}

func TestKeywordDensity(t *testing.T) {
	if got := KeywordDensity("", []string{"step"}); got != 0 {
		t.Fatalf("empty text density should be 0, got %v", got)
	}
	got := KeywordDensity("step one complete step two next", []string{"step"})
	if got <= 0 {
		t.Fatalf("expected positive density, got %v", got)
	}
}
