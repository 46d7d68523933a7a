package model

// Indicators holds the technical indicators derived from one price series.
// JSON names are consumed by the dashboard as-is.
type Indicators struct {
	PToday       float64 `json:"P_today" db:"p_today"`
	MA20         float64 `json:"MA_20" db:"ma_20"`
	BollingerLow float64 `json:"Bollinger_low" db:"bollinger_low"`
	ForecastMin  float64 `json:"Forecast_min" db:"forecast_min"`
	ForecastMax  float64 `json:"Forecast_max" db:"forecast_max"`
	Volatility   float64 `json:"Volatility" db:"volatility"`   // daily return std over 30 returns (0.021 = 2.1%)
	TrendSlope   float64 `json:"Trend_slope" db:"trend_slope"` // USD/day, regression over the last 10 prices
	Forecast1d   float64 `json:"Forecast_1d" db:"forecast_1d"`
}
