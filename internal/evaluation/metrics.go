package evaluation

import (
	"math"
	"sort"
)

// NDCG calculates Normalized Discounted Cumulative Gain at K. ideal holds
// every judged grade for the query, so relevant items that were never
// retrieved still lower the score.
func NDCG(relevances, ideal []int, k int) float64 {
	idcg := dcg(sortedDesc(ideal), k)
	if idcg == 0 {
		return 0
	}
	return dcg(relevances, k) / idcg
}

func dcg(relevances []int, k int) float64 {
	if k > len(relevances) {
		k = len(relevances)
	}
	var sum float64
	for i := 0; i < k; i++ {
		sum += float64(relevances[i]) / math.Log2(float64(i+2))
	}
	return sum
}

func sortedDesc(grades []int) []int {
	sorted := make([]int, len(grades))
	copy(sorted, grades)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return sorted
}

// Recall calculates Recall at K against totalRelevant judged items.
func Recall(relevances []int, k, threshold, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	if k > len(relevances) {
		k = len(relevances)
	}

	relevantInK := 0
	for i := 0; i < k; i++ {
		if relevances[i] >= threshold {
			relevantInK++
		}
	}

	return float64(relevantInK) / float64(totalRelevant)
}

// Precision calculates Precision at K.
func Precision(relevances []int, k int, threshold int) float64 {
	if k > len(relevances) {
		k = len(relevances)
	}
	if k == 0 {
		return 0
	}

	relevant := 0
	for i := 0; i < k; i++ {
		if relevances[i] >= threshold {
			relevant++
		}
	}

	return float64(relevant) / float64(k)
}

// MRR calculates the reciprocal rank of the first relevant item.
func MRR(relevances []int, threshold int) float64 {
	for i, r := range relevances {
		if r >= threshold {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision calculates Average Precision over totalRelevant judged
// items.
func AveragePrecision(relevances []int, threshold, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}

	relevant := 0
	sumPrecision := 0.0
	for i, r := range relevances {
		if r >= threshold {
			relevant++
			sumPrecision += float64(relevant) / float64(i+1)
		}
	}

	return sumPrecision / float64(totalRelevant)
}
