package services

import (
	"sort"
	"strconv"

	"github.com/scuciatto/paperballspoker/internal/models"
)

// ComputeVoteStats summarizes a revealed round. Average and median are
// taken over the votes that parse as decimal numbers and are 0 when
// none do. Mode counts every vote, numeric or not, and a tie goes to
// the value cast first. Total counts every vote.
func ComputeVoteStats(votes []models.RevealedVote) *models.VoteStats {
	stats := &models.VoteStats{Total: len(votes)}

	var numeric []float64
	for _, v := range votes {
		if n, err := strconv.ParseFloat(v.Vote, 64); err == nil {
			numeric = append(numeric, n)
		}
	}

	if len(numeric) > 0 {
		var sum float64
		for _, n := range numeric {
			sum += n
		}
		stats.Average = sum / float64(len(numeric))

		sorted := append([]float64(nil), numeric...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			stats.Median = (sorted[mid-1] + sorted[mid]) / 2
		} else {
			stats.Median = sorted[mid]
		}
	}

	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.Vote]++
	}
	best := 0
	for _, v := range votes {
		// Strictly greater keeps the first-cast value on ties.
		if counts[v.Vote] > best {
			best = counts[v.Vote]
			stats.Mode = v.Vote
		}
	}

	return stats
}
