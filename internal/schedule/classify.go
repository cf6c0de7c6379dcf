package schedule

import (
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

// AllBinsWindow is the length of the all-bins week that ends on the published waste date.
const AllBinsWindow = 7 * 24 * time.Hour

// Classify places now within the fortnightly cycle anchored on the published waste date.
// Both window edges are exclusive.
func Classify(wasteInstant, now time.Time) core.NextCollection {
	windowStart := wasteInstant.Add(-AllBinsWindow)
	if now.After(windowStart) && now.Before(wasteInstant) {
		return core.NextCollectionAllBins
	}
	return core.NextCollectionRecycling
}
