package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"RiskForecast/internal/model"
)

// ReportHeader opens every metrics report.
const ReportHeader = "📊 Risk & Return Metrics"

// FormatMetricsReport renders the report as plain console text: a header,
// a rule, then one "<Name>: <value>" line per metric in report order.
func FormatMetricsReport(r *model.MetricsReport) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 35))
	b.WriteString("\n")
	for _, m := range r.Metrics {
		b.WriteString(fmt.Sprintf("%s: %.2f\n", m.Name, m.Value))
	}
	return b.String()
}

// FormatTelegramReport formats a finished run into a Telegram HTML message.
func FormatTelegramReport(rec *model.RunRecord) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s Risk Report</b> | %s\n\n",
		html.EscapeString(rec.Symbol), rec.RanAt.Format(time.DateOnly)))
	b.WriteString(fmt.Sprintf("Period: %s → %s (%d sessions)\n\n",
		rec.StartDate.Format(time.DateOnly), rec.EndDate.Format(time.DateOnly), rec.Observations))

	if rec.Report != nil {
		b.WriteString("📈 <b>Metrics:</b>\n")
		for _, m := range rec.Report.Metrics {
			b.WriteString(fmt.Sprintf("  %s: %.2f\n", html.EscapeString(m.Name), m.Value))
		}
	}

	if rec.Forecast == nil {
		return b.String()
	}
	future := rec.Forecast.Future(rec.EndDate)
	if len(future) == 0 {
		return b.String()
	}
	next, last := future[0], future[len(future)-1]
	b.WriteString(fmt.Sprintf("\n🔮 <b>%d-day forecast</b>:\n", rec.Horizon))
	b.WriteString(fmt.Sprintf("  %s: %.2f [%.2f, %.2f]\n", next.Date.Format(time.DateOnly), next.Yhat, next.YhatLower, next.YhatUpper))
	if len(future) > 1 {
		b.WriteString(fmt.Sprintf("  %s: %.2f [%.2f, %.2f]\n", last.Date.Format(time.DateOnly), last.Yhat, last.YhatLower, last.YhatUpper))
	}
	return b.String()
}
