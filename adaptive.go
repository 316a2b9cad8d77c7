package compliance

const defaultShortestSegmentSec = 30

type adaptiveTier struct {
	maxShortestSec int
	params         AdaptiveParameters
}

// Tiers are ordered by shortest planned segment; the last one catches everything longer.
var adaptiveTiers = []adaptiveTier{
	{maxShortestSec: 15, params: AdaptiveParameters{SmoothingWindowSec: 3, MinSegmentDurationSec: 5, BoundaryStabilitySec: 3}},
	{maxShortestSec: 30, params: AdaptiveParameters{SmoothingWindowSec: 5, MinSegmentDurationSec: 10, BoundaryStabilitySec: 5}},
	{maxShortestSec: 60, params: AdaptiveParameters{SmoothingWindowSec: 10, MinSegmentDurationSec: 15, BoundaryStabilitySec: 10}},
	{maxShortestSec: 180, params: AdaptiveParameters{SmoothingWindowSec: 15, MinSegmentDurationSec: 20, BoundaryStabilitySec: 15}},
}

var longEffortParams = AdaptiveParameters{SmoothingWindowSec: 30, MinSegmentDurationSec: 30, BoundaryStabilitySec: 20}

// SelectAdaptiveParameters sizes the smoothing and boundary windows from the
// shortest planned segment. Short efforts need low-lag detection, long steady
// efforts need heavier smoothing so terrain noise does not fragment them.
func SelectAdaptiveParameters(segments []PlannedSegment) AdaptiveParameters {
	shortest := defaultShortestSegmentSec
	for i, s := range segments {
		if i == 0 || s.DurationSec < shortest {
			shortest = s.DurationSec
		}
	}

	params := longEffortParams
	for _, tier := range adaptiveTiers {
		if shortest <= tier.maxShortestSec {
			params = tier.params
			break
		}
	}
	params.ShortestSegmentSec = shortest
	return params
}
