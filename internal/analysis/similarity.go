package analysis

import (
	"math"
	"strings"
)

// LexicalSimilarity is Jaccard word overlap between two texts. It is a
// stand-in for embedding-based similarity; callers should treat it as a
// coarse signal only.
func LexicalSimilarity(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0
	}

	words1 := wordSet(text1)
	words2 := wordSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// CosineSimilarity compares two embedding vectors. Mismatched lengths or a
// zero vector yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

// DisjointTags reports whether two tag sets share no element. Comparison is
// case-insensitive. Empty sets are never considered disjoint.
func DisjointTags(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[strings.ToLower(tag)] = struct{}{}
	}
	for _, tag := range b {
		if _, ok := set[strings.ToLower(tag)]; ok {
			return false
		}
	}
	return true
}
