package pipeline

import (
	"math"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type segmentParquetRow struct {
	PlannedIndex       int32   `parquet:"name=planned_index, type=INT32"`
	PlannedName        string  `parquet:"name=planned_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlannedType        string  `parquet:"name=planned_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PlannedDurationSec int32   `parquet:"name=planned_duration_sec, type=INT32"`
	PlannedPowerLow    float64 `parquet:"name=planned_power_low, type=DOUBLE"`
	PlannedPowerHigh   float64 `parquet:"name=planned_power_high, type=DOUBLE"`
	PlannedZone        int32   `parquet:"name=planned_zone, type=INT32"`
	Matched            bool    `parquet:"name=matched, type=BOOLEAN"`
	DetectedIndex      int32   `parquet:"name=detected_index, type=INT32"`
	ActualStartSec     int32   `parquet:"name=actual_start_sec, type=INT32"`
	ActualDurationSec  int32   `parquet:"name=actual_duration_sec, type=INT32"`
	ActualAvgPower     float64 `parquet:"name=actual_avg_power, type=DOUBLE"`
	ActualDominantZone int32   `parquet:"name=actual_dominant_zone, type=INT32"`
	PowerCompliance    float64 `parquet:"name=power_compliance, type=DOUBLE"`
	ZoneCompliance     float64 `parquet:"name=zone_compliance, type=DOUBLE"`
	DurationCompliance float64 `parquet:"name=duration_compliance, type=DOUBLE"`
	OverallScore       float64 `parquet:"name=overall_score, type=DOUBLE"`
	SimilarityScore    float64 `parquet:"name=similarity_score, type=DOUBLE"`
	MatchQuality       string  `parquet:"name=match_quality, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// writeSegmentsParquet writes one row per planned segment. Skipped segments
// carry -1 indices and NaN actual power.
func writeSegmentsParquet(path string, rows []SegmentRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(segmentParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := segmentParquetRow{
			PlannedIndex:       int32(r.PlannedIndex),
			PlannedName:        r.PlannedName,
			PlannedType:        r.PlannedType,
			PlannedDurationSec: int32(r.PlannedDurationSec),
			PlannedPowerLow:    r.PlannedPowerLow,
			PlannedPowerHigh:   r.PlannedPowerHigh,
			PlannedZone:        int32(r.PlannedZone),
			Matched:            r.Matched,
			DetectedIndex:      intOrMinusOne(r.DetectedIndex),
			ActualStartSec:     intOrMinusOne(r.ActualStartSec),
			ActualDurationSec:  intOrMinusOne(r.ActualDurationSec),
			ActualAvgPower:     valueOrNaN(r.ActualAvgPower),
			ActualDominantZone: intOrMinusOne(r.ActualDominantZone),
			PowerCompliance:    r.PowerCompliance,
			ZoneCompliance:     r.ZoneCompliance,
			DurationCompliance: r.DurationCompliance,
			OverallScore:       r.OverallScore,
			SimilarityScore:    r.SimilarityScore,
			MatchQuality:       r.MatchQuality,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func intOrMinusOne(v *int) int32 {
	if v == nil {
		return -1
	}
	return int32(*v)
}
