package generation

import (
	"log"
	"math"
	"strings"

	"pustaka/types"
)

// AnalyzeDiversity scores how different the source briefs are from each
// other, 0 (identical) to 1 (nothing in common). Uses embedding cosine
// distance when a provider is available, lexical token overlap otherwise.
func AnalyzeDiversity(texts []string, provider EmbeddingsProvider) *types.DiversityAnalysis {
	if len(texts) < 2 {
		return nil
	}

	// Score the head of each brief; whole documents drown the signal in
	// shared boilerplate sections.
	samples := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > 2000 {
			t = t[:2000]
		}
		samples[i] = t
	}

	score, ok := embeddingDiversity(samples, provider)
	if !ok {
		score = lexicalDiversity(samples)
	}
	score = math.Round(score*1000) / 1000

	return &types.DiversityAnalysis{
		DiversityScore: score,
		Interpretation: interpretDiversity(score),
	}
}

// embeddingDiversity is the mean pairwise cosine distance of the samples.
func embeddingDiversity(samples []string, provider EmbeddingsProvider) (float64, bool) {
	if provider == nil {
		return 0, false
	}
	vectors, err := provider.EmbedTexts(samples)
	if err != nil {
		log.Printf("diversity embeddings failed, using lexical fallback: %v", err)
		return 0, false
	}

	total, count := 0.0, 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			total += 1 - cosineSimilarity(vectors[i], vectors[j])
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// lexicalDiversity is 1 minus the mean pairwise Jaccard similarity of the
// samples' lowercase token sets.
func lexicalDiversity(samples []string) float64 {
	sets := make([]map[string]struct{}, len(samples))
	for i, s := range samples {
		set := make(map[string]struct{})
		for _, tok := range strings.Fields(strings.ToLower(s)) {
			set[tok] = struct{}{}
		}
		sets[i] = set
	}

	total, count := 0.0, 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			total += jaccard(sets[i], sets[j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return 1 - total/float64(count)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

func interpretDiversity(score float64) string {
	switch {
	case score < 0.2:
		return "The source briefs largely agree; synthesis mostly removes repetition."
	case score < 0.5:
		return "The source briefs overlap but each contributes distinct material."
	default:
		return "The source briefs differ substantially; the synthesis reconciles real disagreements."
	}
}
