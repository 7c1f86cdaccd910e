// Package score ranks passing listings by nice-to-have desirability.
//
// Scores are fixed-point hundredths computed with integer arithmetic only,
// so identical inputs produce identical scores on every run and platform.
package score

import (
	"github.com/fwagner/gtswatch/internal/criteria"
	"github.com/fwagner/gtswatch/internal/detect"
)

// Confidence multipliers in hundredths. Ambiguous keyword hits are
// discounted instead of over-credited.
func multiplier(c detect.Confidence) int {
	switch c {
	case detect.High:
		return 100
	case detect.Medium:
		return 75
	default:
		return 50
	}
}

// Score computes the desirability score for a passing listing: the weighted
// sum of present nice-to-have features, each discounted by its detection
// confidence, minus the owner penalty when the advisory fired. The result
// is in hundredths (weight 1 at high confidence contributes 100).
func Score(verdict detect.Verdict, ownerAdvisory bool, c *criteria.Criteria) int {
	total := 0
	for key := range c.NiceToHave {
		hit := verdict[key]
		if !hit.Present {
			continue
		}
		total += c.Weight(key) * multiplier(hit.Confidence)
	}
	if ownerAdvisory {
		total -= c.OwnerPenalty
	}
	return total
}
