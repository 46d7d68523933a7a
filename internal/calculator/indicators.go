package calculator

import (
	"math"

	"OilTracker/internal/model"
)

const (
	BollingerWindow  = 20
	BollingerWidth   = 2.0
	VolatilityWindow = 30
	TrendWindow      = 10
	ForecastHorizon  = 7
)

// ComputeIndicators derives all indicators from a date-ascending series.
// The series is used in the given order; short or empty input degrades to zeros.
func ComputeIndicators(series []model.PricePoint) model.Indicators {
	prices := extractPrices(series)
	n := len(prices)
	last := 0.0
	if n > 0 {
		last = prices[n-1]
	}

	window20 := Tail(prices, BollingerWindow)
	ma20 := Mean(window20)
	bollLow := ma20 - BollingerWidth*Stddev(window20)

	returns := DailyReturns(prices)
	vol := Stddev(Tail(returns, VolatilityWindow))

	trendWindow := Tail(prices, TrendWindow)
	slope := LinearRegressionSlope(trendWindow)

	fmin, fmax := forecastBand(trendWindow, slope, last)

	return model.Indicators{
		PToday:       last,
		MA20:         ma20,
		BollingerLow: bollLow,
		ForecastMin:  fmin,
		ForecastMax:  fmax,
		Volatility:   vol,
		TrendSlope:   slope,
		Forecast1d:   last + slope,
	}
}

// forecastBand projects last forward ForecastHorizon days along slope and widens
// the range by the residual stddev of the trend window around a line anchored
// at the window's first price.
func forecastBand(window []float64, slope, last float64) (lo, hi float64) {
	resid := make([]float64, len(window))
	for i, p := range window {
		yhat := window[0] + slope*float64(i)
		resid[i] = p - yhat
	}
	residStd := Stddev(resid)

	lo, hi = math.Inf(1), math.Inf(-1)
	for h := 0; h < ForecastHorizon; h++ {
		f := last + slope*float64(h+1)
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	return lo - residStd, hi + residStd
}

func extractPrices(series []model.PricePoint) []float64 {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}
	return prices
}
