package store

import (
	"sort"

	"github.com/docfold/vectorizer/internal/models"
)

// rankTopK orders results by similarity score descending and truncates to
// topK. The sort is stable so exact score ties keep scan/insertion order.
func rankTopK(results []models.SearchResult, topK int) []models.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}
