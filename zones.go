package compliance

import (
	"encoding/json"
	"math"
)

// zoneCeilingPct holds the upper bound of zones 1-4 as a fraction of FTP.
// Zone 1 ends one watt below the zone 2 floor, so its entry is the zone 2 floor.
var zoneCeilingPct = [4]float64{0.55, 0.75, 0.90, 1.05}

// ZoneRange is an inclusive watt band. Max is +Inf for zone 5.
type ZoneRange struct {
	Zone int     `json:"zone"`
	Min  float64 `json:"min_watts"`
	Max  float64 `json:"max_watts"`
}

// MarshalJSON encodes an unbounded ceiling as null.
func (r ZoneRange) MarshalJSON() ([]byte, error) {
	out := struct {
		Zone int      `json:"zone"`
		Min  float64  `json:"min_watts"`
		Max  *float64 `json:"max_watts"`
	}{Zone: r.Zone, Min: r.Min}
	if !math.IsInf(r.Max, 1) {
		ceiling := r.Max
		out.Max = &ceiling
	}
	return json.Marshal(out)
}

// Contains reports whether power falls inside the band.
func (r ZoneRange) Contains(power float64) bool {
	return power >= r.Min && power <= r.Max
}

// PowerZones are the five FTP-derived bands, indexed zone-1.
type PowerZones [5]ZoneRange

// Range returns the band for zone 1..5.
func (z PowerZones) Range(zone int) ZoneRange {
	if zone < 1 {
		zone = 1
	}
	if zone > 5 {
		zone = 5
	}
	return z[zone-1]
}

// CalculatePowerZones derives whole-watt zone bands from FTP.
// Each zone starts one watt above the previous ceiling so the bands stay
// contiguous for every FTP, including very small ones.
func CalculatePowerZones(ftp float64) PowerZones {
	var zones PowerZones

	floor := 0.0
	z1Max := math.Round(ftp*zoneCeilingPct[0]) - 1
	if z1Max < floor {
		z1Max = floor
	}
	zones[0] = ZoneRange{Zone: 1, Min: floor, Max: z1Max}

	for i := 1; i < 4; i++ {
		lo := zones[i-1].Max + 1
		hi := math.Round(ftp * zoneCeilingPct[i])
		if hi < lo {
			hi = lo
		}
		zones[i] = ZoneRange{Zone: i + 1, Min: lo, Max: hi}
	}
	zones[4] = ZoneRange{Zone: 5, Min: zones[3].Max + 1, Max: math.Inf(1)}
	return zones
}

// ClassifyPowerToZone returns the first zone whose ceiling is at or above
// power, so fractional watts past a whole-watt ceiling move up a zone.
func ClassifyPowerToZone(power float64, zones PowerZones) int {
	for i := 0; i < 4; i++ {
		if power <= zones[i].Max {
			return i + 1
		}
	}
	return 5
}

// GetTargetZone buckets the midpoint of a percent-of-FTP range into a zone.
func GetTargetZone(lowPct, highPct float64) int {
	mid := (lowPct + highPct) / 2
	switch {
	case mid < 55:
		return 1
	case mid <= 75:
		return 2
	case mid <= 90:
		return 3
	case mid <= 105:
		return 4
	default:
		return 5
	}
}
