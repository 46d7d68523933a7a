package strategy

import (
	"math"
	"strings"

	"OilTracker/internal/model"
)

// Buckets maps inclusive lower score bounds to buckets, checked in order.
var Buckets = []struct {
	MinScore int
	Bucket   model.Bucket
}{
	{85, model.BucketStrongBuy},
	{65, model.BucketBuy},
	{50, model.BucketWatch},
}

// DefaultBucket applies to scores below every bound in Buckets.
const DefaultBucket = model.BucketAvoid

const (
	NeutralComment     = "Situation neutre"
	opportunitySuffix  = " = opportunité"
	triggerSeparator   = " + "
	triggerBollinger   = "price below Bollinger band"
	triggerForecastMin = "≤ forecast min 7d"
	triggerBelowMA     = "≤ MA20"
	triggerTrend       = "recent bearish trend"
	triggerVolatility  = "high volatility"
)

// BucketFor maps a score to its bucket.
func BucketFor(score int) model.Bucket {
	for _, b := range Buckets {
		if score >= b.MinScore {
			return b.Bucket
		}
	}
	return DefaultBucket
}

// ComputeBuyingScore scores indicators on a 0..100 scale and classifies the result.
func ComputeBuyingScore(ind model.Indicators) model.ScoreResult {
	adj := computeAdjustments(ind)
	score := clampScore(adj.total())

	return model.ScoreResult{
		Indicators: ind,
		Score:      score,
		Bucket:     BucketFor(score),
		Comment:    buildComment(adj),
	}
}

// clampScore rounds into [0, 100]. NaN, only reachable from non-finite
// indicators, maps to 0.
func clampScore(total float64) int {
	if math.IsNaN(total) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, total))))
}

func buildComment(adj adjustments) string {
	var bits []string
	if adj.Bollinger > 0 {
		bits = append(bits, triggerBollinger)
	}
	switch adj.Forecast {
	case forecastMinBonus:
		bits = append(bits, triggerForecastMin)
	case belowMABonus:
		bits = append(bits, triggerBelowMA)
	}
	if adj.Trend > 0 {
		bits = append(bits, triggerTrend)
	}
	if adj.Volatility > 0 {
		bits = append(bits, triggerVolatility)
	}
	if len(bits) == 0 {
		return NeutralComment
	}
	return strings.Join(bits, triggerSeparator) + opportunitySuffix
}
