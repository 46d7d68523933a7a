package strategy

import (
	"math"
	"regexp"

	"OilTracker/internal/model"
)

const (
	noteBollingerFarBelow = "Prix nettement sous la bande inférieure → possible survente / opportunité d'achat contrarien"
	noteBollingerNearLow  = "Prix proche de la bande basse → biais haussier à court terme si rebond"
	noteBollingerAboveMA  = "Prix au-dessus de la moyenne mobile → momentum positif"
	noteBollingerNeutral  = "Prix autour de la MA20 → situation neutre"

	noteVolHigh     = "Volatilité >3% (30j) → risque élevé; adapter la taille des positions"
	noteVolModerate = "Volatilité modérée (2–3%)"
	noteVolLow      = "Volatilité faible (<2%) → conditions calmes"

	noteTrendMarkedDown = "Tendance baissière marquée (régression 10j)"
	noteTrendMildDown   = "Tendance légèrement baissière"
	noteTrendMarkedUp   = "Tendance haussière marquée"
	noteTrendSideways   = "Tendance latérale"

	noteForecastStrongUp   = "Projection 1j haussière (> +$5)"
	noteForecastMildUp     = "Projection 1j légèrement haussière"
	noteForecastStrongDown = "Projection 1j baissière (< -$5)"
	noteForecastNeutral    = "Projection 1j neutre"

	SummaryFavorable   = "Contexte favorable"
	SummaryUnfavorable = "Contexte défavorable"
	SummaryLeanBuy     = "Légère préférence à l'achat"
	SummaryLeanCaution = "Légère préférence à la prudence"
	SummaryNeutral     = "Signal neutre"
)

// The summary re-reads the rendered notes; these patterns must track the wording above.
var (
	bullishPattern = regexp.MustCompile(`haussi|survente|au-dessus`)
	bearishPattern = regexp.MustCompile(`risque|baissi`)
)

// InterpretIndicators renders one note per indicator plus an overall summary.
func InterpretIndicators(ind model.Indicators) model.InterpretationNotes {
	notes := model.InterpretationNotes{
		Bollinger:  interpretBollinger(ind),
		Volatility: interpretVolatility(ind.Volatility),
		Trend:      interpretTrend(ind.TrendSlope),
		Forecast:   interpretForecast(ind.Forecast1d - ind.PToday),
	}
	notes.Summary = summarize(notes)
	return notes
}

func interpretBollinger(ind model.Indicators) string {
	width := math.Max(0, ind.MA20-ind.BollingerLow)
	pct := 0.0
	if width != 0 {
		pct = (ind.MA20 - ind.PToday) / width
	}
	switch {
	case pct > 1.1:
		return noteBollingerFarBelow
	case pct > 0.6:
		return noteBollingerNearLow
	case pct < -0.1:
		return noteBollingerAboveMA
	default:
		return noteBollingerNeutral
	}
}

func interpretVolatility(vol float64) string {
	switch {
	case vol >= 0.03:
		return noteVolHigh
	case vol >= 0.02:
		return noteVolModerate
	default:
		return noteVolLow
	}
}

func interpretTrend(slope float64) string {
	switch {
	case slope < -2:
		return noteTrendMarkedDown
	case slope < 0:
		return noteTrendMildDown
	case slope > 2:
		return noteTrendMarkedUp
	default:
		return noteTrendSideways
	}
}

func interpretForecast(diff float64) string {
	switch {
	case diff > 5:
		return noteForecastStrongUp
	case diff > 0:
		return noteForecastMildUp
	case diff < -5:
		return noteForecastStrongDown
	default:
		return noteForecastNeutral
	}
}

// summarize counts bullish wording in the bollinger, trend and forecast notes and
// bearish wording in the volatility, trend and forecast notes. A note can land
// in both tallies.
func summarize(n model.InterpretationNotes) string {
	positives := countMatches(bullishPattern, n.Bollinger, n.Trend, n.Forecast)
	negatives := countMatches(bearishPattern, n.Volatility, n.Trend, n.Forecast)

	switch {
	case positives >= 2 && negatives == 0:
		return SummaryFavorable
	case negatives >= 2 && positives == 0:
		return SummaryUnfavorable
	case positives > negatives:
		return SummaryLeanBuy
	case negatives > positives:
		return SummaryLeanCaution
	default:
		return SummaryNeutral
	}
}

func countMatches(re *regexp.Regexp, notes ...string) int {
	n := 0
	for _, note := range notes {
		if re.MatchString(note) {
			n++
		}
	}
	return n
}
