package compliance

// transitionShare is the fraction of the lookahead window a new zone must
// hold before a boundary is committed.
const transitionShare = 0.70

// DetectEffortBlocks scans the zone timeline and emits contiguous effort
// blocks. A zone change only becomes a boundary once the new zone holds at
// least 70% of the next BoundaryStabilitySec samples. Blocks shorter than
// MinSegmentDurationSec are dropped, not merged into a neighbour.
// Statistics are taken from the raw power samples.
func DetectEffortBlocks(power []float64, timeline []int, params AdaptiveParameters) []DetectedBlock {
	n := len(timeline)
	if n == 0 {
		return nil
	}
	if len(power) < n {
		n = len(power)
	}

	var (
		blocks   []DetectedBlock
		counts   [5]int
		start    = 0
		dominant = timeline[0]
	)

	for i := 0; i < n; i++ {
		zone := timeline[i]
		if zone != dominant && isStableTransition(timeline[:n], i, zone, params.BoundaryStabilitySec) {
			if i-start >= params.MinSegmentDurationSec {
				blocks = append(blocks, summarizeBlock(len(blocks), power, counts, start, i))
			}
			counts = [5]int{}
			start = i
			dominant = zone
		}
		counts[zoneIndex(zone)]++
	}
	if n-start >= params.MinSegmentDurationSec {
		blocks = append(blocks, summarizeBlock(len(blocks), power, counts, start, n))
	}
	return blocks
}

func isStableTransition(timeline []int, at, zone, window int) bool {
	if window < 1 {
		window = 1
	}
	end := at + window
	if end > len(timeline) {
		end = len(timeline)
	}
	hits := 0
	for _, z := range timeline[at:end] {
		if z == zone {
			hits++
		}
	}
	return float64(hits) >= transitionShare*float64(end-at)
}

func summarizeBlock(index int, power []float64, counts [5]int, start, end int) DetectedBlock {
	samples := power[start:end]
	block := DetectedBlock{
		Index:       index,
		StartSec:    start,
		EndSec:      end,
		DurationSec: end - start,
		AvgPower:    average(samples),
		MaxPower:    maxValue(samples),
		MinPower:    minValue(samples),
	}

	total := 0
	best := 0
	for z, c := range counts {
		total += c
		if c > counts[best] {
			best = z
		}
	}
	block.DominantZone = best + 1
	if total > 0 {
		for z, c := range counts {
			block.ZoneDistribution[z] = float64(c) / float64(total)
		}
	}
	return block
}

func zoneIndex(zone int) int {
	switch {
	case zone < 1:
		return 0
	case zone > 5:
		return 4
	default:
		return zone - 1
	}
}
