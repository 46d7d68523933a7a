package strategy

import (
	"math"

	"OilTracker/internal/model"
)

// Scoring policy constants. They have no derivation; keep them exact.
const (
	baseScore = 50.0

	bollingerBonusMin   = 10.0
	bollingerBonusRange = 5.0

	forecastMinBonus = 20.0
	belowMABonus     = 10.0

	trendBonusMin   = 5.0
	trendBonusRange = 5.0
	trendRelScale   = 0.0015 // 0.15% of price per day saturates the bonus

	volThreshold  = 0.025 // 2.5% daily std
	volSpan       = 0.025 // malus saturates at 5%
	volMalusMin   = 10.0
	volMalusRange = 10.0
)

// adjustments holds each additive term of the buying score.
type adjustments struct {
	Bollinger  float64
	Forecast   float64
	Trend      float64
	Volatility float64 // subtracted
}

func (a adjustments) total() float64 {
	return baseScore + a.Bollinger + a.Forecast + a.Trend - a.Volatility
}

func computeAdjustments(ind model.Indicators) adjustments {
	return adjustments{
		Bollinger:  bollingerBonus(ind),
		Forecast:   forecastBonus(ind),
		Trend:      trendBonus(ind),
		Volatility: volatilityMalus(ind),
	}
}

// bollingerBonus rewards a price under the lower band, 10..15 by depth.
func bollingerBonus(ind model.Indicators) float64 {
	if ind.PToday < ind.BollingerLow {
		diff := ind.BollingerLow - ind.PToday
		denom := math.Max(1e-9, ind.MA20-ind.BollingerLow) // ~= 2*std
		proximity := math.Min(1, diff/denom)
		return bollingerBonusMin + bollingerBonusRange*proximity
	}
	return 0
}

func forecastBonus(ind model.Indicators) float64 {
	switch {
	case ind.PToday <= ind.ForecastMin:
		return forecastMinBonus
	case ind.PToday <= ind.MA20:
		return belowMABonus
	default:
		return 0
	}
}

// trendBonus rewards a falling market, 5..10 by slope relative to MA20.
func trendBonus(ind model.Indicators) float64 {
	if ind.TrendSlope < 0 {
		rel := math.Min(1, math.Abs(ind.TrendSlope)/math.Max(1, ind.MA20)/trendRelScale)
		return trendBonusMin + trendBonusRange*rel
	}
	return 0
}

// volatilityMalus penalises daily volatility above 2.5%, 10..20.
func volatilityMalus(ind model.Indicators) float64 {
	if ind.Volatility > volThreshold {
		over := math.Min(1, (ind.Volatility-volThreshold)/volSpan)
		return volMalusMin + volMalusRange*over
	}
	return 0
}
