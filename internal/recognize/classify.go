// Package recognize classifies probe embeddings against the enrolled gallery.
// Classification is a pure function of its inputs; the gallery is passed in
// per call so callers control the reload cadence.
package recognize

import (
	"math"
	"sort"

	"github.com/smartattendai/smart-attendance/internal/gallery"
)

// maxTopMatches bounds the ranked runner-up list returned for observability.
const maxTopMatches = 5

// Candidate is one ranked gallery entry with its similarity score.
type Candidate struct {
	Identity string  `json:"identity"`
	Score    float64 `json:"score"`
}

// Result is the outcome of classifying one probe embedding.
// Identified is false for an empty gallery, a missing probe, or a top score
// below the threshold; Score still carries the best observed similarity
// (0.0 if there were no candidates).
type Result struct {
	Identified bool        `json:"identified"`
	Identity   string      `json:"identity,omitempty"`
	Score      float64     `json:"score"`
	TopMatches []Candidate `json:"top_matches,omitempty"`
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns -1 for mismatched lengths or zero vectors, the worst possible score.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity
}

// Classify scores the probe against every gallery entry and returns the best
// match. Galleries are small (tens to low hundreds of identities), so a plain
// linear scan is deliberate. Equal top scores break to the lexicographically
// smaller identity code, which keeps results deterministic across runs.
func Classify(probe []float32, g gallery.Gallery, threshold float64) Result {
	if len(probe) == 0 || len(g) == 0 {
		return Result{Identified: false, Score: 0.0}
	}

	candidates := make([]Candidate, 0, len(g))
	for identity, ref := range g {
		candidates = append(candidates, Candidate{
			Identity: identity,
			Score:    CosineSimilarity(probe, ref),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Identity < candidates[j].Identity
	})

	top := candidates
	if len(top) > maxTopMatches {
		top = top[:maxTopMatches]
	}

	best := candidates[0]
	if best.Score < threshold {
		return Result{Identified: false, Score: best.Score, TopMatches: top}
	}

	return Result{
		Identified: true,
		Identity:   best.Identity,
		Score:      best.Score,
		TopMatches: top,
	}
}
