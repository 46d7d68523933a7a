package notifier

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"OilTracker/internal/model"
)

var bucketLabels = map[model.Bucket]string{
	model.BucketStrongBuy: "🟢 STRONG BUY",
	model.BucketBuy:       "🟩 BUY",
	model.BucketWatch:     "🟡 WATCH",
	model.BucketAvoid:     "🔴 AVOID",
}

// BucketLabel renders a bucket for chat display.
func BucketLabel(b model.Bucket) string {
	if l, ok := bucketLabels[b]; ok {
		return l
	}
	return strings.ToUpper(string(b))
}

// FormatDigest formats the daily buying-score digest across grades.
func FormatDigest(scores []model.GradeScore, day time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛢 <b>OilTracker buying scores</b> | %s\n\n", day.Format(model.DateLayout)))
	if len(scores) == 0 {
		b.WriteString("No market data available.")
		return b.String()
	}
	for _, s := range scores {
		b.WriteString(fmt.Sprintf("<b>%s</b>: %d/100 %s\n", html.EscapeString(s.GradeName), s.Score, BucketLabel(s.Bucket)))
		b.WriteString(fmt.Sprintf("   $%.2f | MA20 %.2f | %s\n", s.Indicators.PToday, s.Indicators.MA20, html.EscapeString(s.Comment)))
	}
	return b.String()
}

// FormatGradeReport formats the score and interpretation of one grade.
func FormatGradeReport(score *model.GradeScore, interp *model.GradeInterpretation) string {
	ind := interp.Indicators
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (#%d)\n\n", html.EscapeString(score.GradeName), score.GradeID))
	b.WriteString(fmt.Sprintf("Score: <b>%d/100</b> %s\n", score.Score, BucketLabel(score.Bucket)))
	b.WriteString(fmt.Sprintf("%s\n\n", html.EscapeString(score.Comment)))

	b.WriteString("📈 <b>Indicators:</b>\n")
	b.WriteString(fmt.Sprintf("  Price: %.2f | MA20: %.2f\n", ind.PToday, ind.MA20))
	b.WriteString(fmt.Sprintf("  Bollinger low: %.2f\n", ind.BollingerLow))
	b.WriteString(fmt.Sprintf("  Forecast 7d: %.2f – %.2f | 1d: %.2f\n", ind.ForecastMin, ind.ForecastMax, ind.Forecast1d))
	b.WriteString(fmt.Sprintf("  Volatility 30d: %.2f%% | Slope 10d: %+.2f\n\n", ind.Volatility*100, ind.TrendSlope))

	n := interp.Notes
	b.WriteString("📝 <b>Notes:</b>\n")
	for _, line := range []string{n.Bollinger, n.Volatility, n.Trend, n.Forecast} {
		b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(line)))
	}
	b.WriteString(fmt.Sprintf("\n<b>%s</b>", html.EscapeString(n.Summary)))
	return b.String()
}

// FormatTransition formats a bucket change alert.
func FormatTransition(tr model.Transition) string {
	return fmt.Sprintf("🔔 <b>%s</b> moved %s → %s (score %d/100)",
		html.EscapeString(tr.GradeName), BucketLabel(tr.From), BucketLabel(tr.To), tr.Score)
}

// FormatHistory formats recorded score snapshots, newest first.
func FormatHistory(gradeName string, snaps []model.ScoreSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕑 <b>%s</b> score history\n\n", html.EscapeString(gradeName)))
	if len(snaps) == 0 {
		b.WriteString("No snapshots recorded yet.")
		return b.String()
	}
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s  %3d  %s\n",
			time.Unix(s.RecordedAt, 0).UTC().Format("2006-01-02 15:04"), s.Score, BucketLabel(s.Bucket)))
	}
	return b.String()
}

// FormatWatchLine summarises how long a grade has held its bucket.
func FormatWatchLine(gw model.GradeWatch) string {
	trail := make([]string, len(gw.RecentScores))
	for i, sc := range gw.RecentScores {
		trail[i] = strconv.Itoa(sc)
	}
	return fmt.Sprintf("%s since %s (%d runs) | recent: %s",
		BucketLabel(gw.Bucket), gw.BucketSince, gw.ConsecutiveRuns, strings.Join(trail, " → "))
}

// FormatWatch formats the bucket watch of every observed grade.
func FormatWatch(entries []model.GradeWatch) string {
	var b strings.Builder
	b.WriteString("👀 <b>Bucket watch</b>\n\n")
	if len(entries) == 0 {
		b.WriteString("No scoring runs observed yet.")
		return b.String()
	}
	for _, gw := range entries {
		b.WriteString(fmt.Sprintf("<b>%s</b> (#%d): %d/100\n   %s\n",
			html.EscapeString(gw.GradeName), gw.GradeID, gw.Score, FormatWatchLine(gw)))
	}
	return b.String()
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/scores - buying score of every grade\n" +
		"/grade &lt;id&gt; - indicators and notes for one grade\n" +
		"/history &lt;id&gt; - recorded scores for one grade\n" +
		"/watch - how long each grade has held its bucket"
}
