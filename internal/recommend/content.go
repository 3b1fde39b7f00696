package recommend

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

// maxContentFeatures caps the TF-IDF vocabulary.
const maxContentFeatures = 100

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true, "you": true, "your": true, "this": true,
	"will": true, "how": true,
}

// ContentScorer holds per-course TF-IDF feature vectors and computes
// profile-to-course cosine similarity. Vectors are built once and never
// mutated; the scorer is safe for concurrent reads.
type ContentScorer struct {
	dim     int
	vectors map[string][]float64 // course id -> l2-normalized feature vector
}

// combinedText concatenates the textual attributes that describe a course.
func combinedText(c *store.Course) string {
	return strings.Join([]string{
		c.Title, c.Domain, c.Description, c.LearningObjectives,
		c.Difficulty, c.Format, c.Platform,
	}, " ")
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// BuildContentScorer vectorizes the catalog: TF-IDF over the combined course
// text with the vocabulary capped at the most frequent terms, rows
// l2-normalized so cosine similarity reduces to a dot product.
func BuildContentScorer(courses []store.Course) *ContentScorer {
	docs := make([][]string, len(courses))
	totalFreq := map[string]int{}
	docFreq := map[string]int{}
	for i := range courses {
		docs[i] = tokenize(combinedText(&courses[i]))
		seen := map[string]bool{}
		for _, tok := range docs[i] {
			totalFreq[tok]++
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	// Vocabulary: most frequent terms first, term order as deterministic
	// tiebreak.
	terms := make([]string, 0, len(totalFreq))
	for t := range totalFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totalFreq[terms[i]] != totalFreq[terms[j]] {
			return totalFreq[terms[i]] > totalFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxContentFeatures {
		terms = terms[:maxContentFeatures]
	}
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}

	n := float64(len(courses))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = logSmooth(n, float64(docFreq[t]))
	}

	s := &ContentScorer{dim: len(terms), vectors: make(map[string][]float64, len(courses))}
	for i := range courses {
		vec := make([]float64, len(terms))
		for _, tok := range docs[i] {
			if j, ok := index[tok]; ok {
				vec[j] += idf[j]
			}
		}
		if norm := floats.Norm(vec, 2); norm > 0 {
			floats.Scale(1/norm, vec)
		}
		s.vectors[courses[i].ID] = vec
	}
	return s
}

// logSmooth is the smoothed inverse document frequency ln((1+n)/(1+df)) + 1.
func logSmooth(n, df float64) float64 {
	return math.Log((1+n)/(1+df)) + 1
}

// UserProfile derives a feature vector from a user's interaction history:
// the mean of course vectors weighted by implicit rating, over completed and
// in-progress courses only. No history yields the zero vector, which scores
// zero against every course under cosine similarity; that degeneration is the
// cold-start contract, not a bug.
func (s *ContentScorer) UserProfile(interactions []store.Interaction) []float64 {
	profile := make([]float64, s.dim)
	count := 0
	for _, in := range interactions {
		if in.CompletionStatus != "Completed" && in.CompletionStatus != "In Progress" {
			continue
		}
		vec, ok := s.vectors[in.CourseID]
		if !ok {
			continue
		}
		floats.AddScaled(profile, in.ImplicitRating, vec)
		count++
	}
	if count > 0 {
		floats.Scale(1/float64(count), profile)
	}
	return profile
}

// Similarity returns the cosine similarity between a profile and a course,
// or 0 when either vector is zero.
func (s *ContentScorer) Similarity(profile []float64, courseID string) float64 {
	vec, ok := s.vectors[courseID]
	if !ok || len(profile) != len(vec) {
		return 0
	}
	normP := floats.Norm(profile, 2)
	normV := floats.Norm(vec, 2)
	if normP == 0 || normV == 0 {
		return 0
	}
	return floats.Dot(profile, vec) / (normP * normV)
}
