package language

import "testing"

func TestDetectPortuguese(t *testing.T) {
	d := Detect("O acesso ao crédito para as pequenas empresas é um dos maiores problemas que o país enfrenta")
	if d.Language != "pt" {
		t.Fatalf("expected pt, got %s (%.2f)", d.Language, d.Confidence)
	}
	if d.Confidence < ConfidenceFloor {
		t.Fatalf("confidence %.2f below floor", d.Confidence)
	}
}

func TestDetectPortugueseNotSpanish(t *testing.T) {
	// Portuguese and Spanish share many function words; only distinctive
	// markers may vote, so plain PT prose must never come back as es.
	samples := []string{
		"O acesso ao crédito para as pequenas empresas é um dos maiores problemas que o país enfrenta",
		"A burocracia para abrir uma empresa ainda é um obstáculo muito grande no interior do país",
		"Não há programas de apoio que cheguem até os pequenos produtores da região",
	}
	for _, s := range samples {
		d := Detect(s)
		if d.Language != "pt" {
			t.Errorf("Detect(%q) = %s (%.2f), want pt", s, d.Language, d.Confidence)
		}
	}
}

func TestDetectEnglish(t *testing.T) {
	d := Detect("The lack of access to credit is one of the biggest problems for small businesses in the country")
	if d.Language != "en" {
		t.Fatalf("expected en, got %s (%.2f)", d.Language, d.Confidence)
	}
}

func TestDetectSpanish(t *testing.T) {
	d := Detect("El acceso al crédito es uno de los mayores problemas para las pequeñas empresas en el país")
	if d.Language != "es" {
		t.Fatalf("expected es, got %s (%.2f)", d.Language, d.Confidence)
	}
}

func TestDetectShortStringIsUnknown(t *testing.T) {
	d := Detect("crédito rural")
	if d.Language != Unknown {
		t.Fatalf("short string should be unknown, got %s", d.Language)
	}
}

func TestDetectGibberishIsUnknown(t *testing.T) {
	d := Detect("xyzzy plugh quux frobnicate wibble zorkmid grue flathead")
	if d.Language != Unknown {
		t.Fatalf("gibberish should be unknown, got %s", d.Language)
	}
}

func TestIs(t *testing.T) {
	text := "O acesso ao crédito para as pequenas empresas é um problema grave no país"
	if !Is(text, "pt", 0.15) {
		t.Fatal("expected PT detection above 0.15")
	}
	if Is(text, "en", 0.15) {
		t.Fatal("PT text must not pass as EN")
	}
}

func TestKeywordsFiltersStopwords(t *testing.T) {
	got := Keywords("o acesso ao crédito para as pequenas empresas", "pt")
	for _, kw := range got {
		switch kw {
		case "o", "ao", "para", "as":
			t.Fatalf("stopword %q survived filtering", kw)
		}
	}
	want := map[string]bool{"acesso": true, "crédito": true, "pequenas": true, "empresas": true}
	for _, kw := range got {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
		delete(want, kw)
	}
	if len(want) != 0 {
		t.Errorf("missing keywords: %v", want)
	}
}

func TestKeywordsDeduplicates(t *testing.T) {
	got := Keywords("crédito crédito crédito rural", "pt")
	seen := map[string]int{}
	for _, kw := range got {
		seen[kw]++
	}
	if seen["crédito"] > 1 {
		t.Fatalf("keyword duplicated: %v", got)
	}
}

func TestTokenizeSplitsOnPunctuation(t *testing.T) {
	got := Tokenize("Crédito, financiamento; startup!")
	want := []string{"crédito", "financiamento", "startup"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
