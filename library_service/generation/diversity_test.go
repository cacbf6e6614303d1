package generation

import (
	"errors"
	"testing"
)

type fakeEmbeddings struct {
	vectors [][]float32
	err     error
}

func (f *fakeEmbeddings) ModelName() string { return "fake" }

func (f *fakeEmbeddings) EmbedTexts(texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[:len(texts)], nil
}

func TestAnalyzeDiversityNeedsTwoTexts(t *testing.T) {
	if got := AnalyzeDiversity([]string{"only one"}, nil); got != nil {
		t.Errorf("single text has no diversity, got %+v", got)
	}
}

func TestAnalyzeDiversityWithEmbeddings(t *testing.T) {
	// Orthogonal vectors: cosine similarity 0, distance 1.
	provider := &fakeEmbeddings{vectors: [][]float32{{1, 0}, {0, 1}}}

	got := AnalyzeDiversity([]string{"alpha", "beta"}, provider)
	if got == nil {
		t.Fatal("expected an analysis")
	}
	if got.DiversityScore != 1 {
		t.Errorf("orthogonal embeddings should score 1, got %v", got.DiversityScore)
	}
	if got.Interpretation == "" {
		t.Error("interpretation should be filled in")
	}
}

func TestAnalyzeDiversityIdenticalEmbeddings(t *testing.T) {
	provider := &fakeEmbeddings{vectors: [][]float32{{1, 2, 3}, {1, 2, 3}}}

	got := AnalyzeDiversity([]string{"same", "same"}, provider)
	if got == nil || got.DiversityScore != 0 {
		t.Errorf("identical embeddings should score 0, got %+v", got)
	}
}

func TestAnalyzeDiversityLexicalFallback(t *testing.T) {
	provider := &fakeEmbeddings{err: errors.New("quota exceeded")}

	same := AnalyzeDiversity([]string{"the quick brown fox", "the quick brown fox"}, provider)
	if same == nil || same.DiversityScore != 0 {
		t.Errorf("identical texts should score 0 via lexical fallback, got %+v", same)
	}

	different := AnalyzeDiversity([]string{"alpha beta gamma", "delta epsilon zeta"}, provider)
	if different == nil || different.DiversityScore != 1 {
		t.Errorf("disjoint texts should score 1 via lexical fallback, got %+v", different)
	}
}

func TestAnalyzeDiversityNilProviderUsesLexical(t *testing.T) {
	got := AnalyzeDiversity([]string{"shared words here", "shared words there"}, nil)
	if got == nil {
		t.Fatal("expected an analysis")
	}
	if got.DiversityScore <= 0 || got.DiversityScore >= 1 {
		t.Errorf("partial overlap should score strictly between 0 and 1, got %v", got.DiversityScore)
	}
}
