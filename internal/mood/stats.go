package mood

import "math"

// Count is a per-label entry count.
type Count struct {
	Mood  string
	Count int
}

// Stat is one mood's share of a user's entries.
type Stat struct {
	Mood       string  `json:"mood"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ComputeStats turns per-mood counts into counts with percentages of the
// total, rounded to one decimal place. Input order is preserved.
func ComputeStats(counts []Count) ([]Stat, int) {
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	stats := make([]Stat, 0, len(counts))
	for _, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(c.Count)/float64(total)*1000) / 10
		}
		stats = append(stats, Stat{Mood: c.Mood, Count: c.Count, Percentage: pct})
	}
	return stats, total
}
