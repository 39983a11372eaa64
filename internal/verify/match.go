package verify

import "math"

// MatchResult is the outcome of comparing a capture embedding against an
// enrolled template.
type MatchResult struct {
	Match    bool
	Distance float64
	// HasData distinguishes a numeric near-miss from a comparison that never
	// happened because one side was missing or malformed.
	HasData bool
}

// EmbeddingDistance computes the Euclidean distance between two equal-length
// embeddings.
func EmbeddingDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// MatchTemplate compares a freshly captured embedding against the enrolled
// template. It accepts iff the distance is at most tolerance; the tolerance
// is deliberately strict to bias toward false rejection over false
// acceptance. Missing or mismatched inputs are an automatic non-match with
// no distance computed.
func MatchTemplate(template, capture []float32, tolerance float64) MatchResult {
	if len(template) == 0 || len(capture) == 0 || len(template) != len(capture) {
		return MatchResult{}
	}
	distance := EmbeddingDistance(template, capture)
	return MatchResult{
		Match:    distance <= tolerance,
		Distance: distance,
		HasData:  true,
	}
}
