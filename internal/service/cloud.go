package service

import (
	"math"

	"github.com/pkordes/taggable/internal/domain"
)

// MaxWeight is the weight of the most used tag in a cloud.
const MaxWeight = 10

// Weigh scales usage counts linearly onto 0..MaxWeight using the min and max
// of the set, rounding half away from zero. When every count is equal, every
// tag gets MaxWeight. An empty input yields an empty, non-nil cloud.
func Weigh(usages []domain.TagUsage) []domain.CloudTag {
	cloud := make([]domain.CloudTag, len(usages))
	if len(usages) == 0 {
		return cloud
	}

	lo, hi := usages[0].Count, usages[0].Count
	for _, u := range usages[1:] {
		lo = min(lo, u.Count)
		hi = max(hi, u.Count)
	}

	for i, u := range usages {
		w := MaxWeight
		if hi != lo {
			w = int(math.Round(MaxWeight * float64(u.Count-lo) / float64(hi-lo)))
		}
		cloud[i] = domain.CloudTag{TagUsage: u, Weight: w}
	}
	return cloud
}
