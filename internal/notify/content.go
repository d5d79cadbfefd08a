package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ragoalert/internal/analysis"
	"ragoalert/internal/models"
)

const tableStyle = `border-collapse:collapse;font-family:Arial,sans-serif;font-size:14px`
const cellStyle = `border:1px solid #ddd;padding:6px 10px;text-align:right`
const headStyle = `border:1px solid #ddd;padding:6px 10px;background:#f2f2f2`

// FluctuationAlert renders one user's fluctuation digest.
func FluctuationAlert(name string, results []analysis.FluctuationResult, now time.Time) (subject, html string) {
	symbols := make([]string, len(results))
	for i, r := range results {
		symbols[i] = r.Symbol
	}
	subject = fmt.Sprintf("🚨 Stock Fluctuation Alert: %s", strings.Join(symbols, ", "))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p><p>The following stocks moved past your threshold:</p>", name))
	sb.WriteString(fmt.Sprintf(`<table style="%s"><tr>`, tableStyle))
	for _, h := range []string{"Symbol", "Reference", "Current", "Change", "Direction"} {
		sb.WriteString(fmt.Sprintf(`<th style="%s">%s</th>`, headStyle, h))
	}
	sb.WriteString("</tr>")
	for _, r := range results {
		arrow := "📉"
		if r.Direction == analysis.DirectionUp {
			arrow = "📈"
		}
		sb.WriteString("<tr>")
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, r.Symbol))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%.2f</td>`, cellStyle, r.InitialPrice))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%.2f</td>`, cellStyle, r.CurrentPrice))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%+.2f%%</td>`, cellStyle, r.PercentChange))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s %s</td>`, cellStyle, arrow, r.Direction))
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	sb.WriteString(fmt.Sprintf("<p>Checked at %s.</p>", now.UTC().Format("2006-01-02 15:04 MST")))
	return subject, sb.String()
}

// TrendDigest renders one user's per-session trend summary. Symbols
// with a detected trend change sort ahead of unchanged ones; within
// each group the incoming order is preserved.
func TrendDigest(name string, session models.SessionKind, results map[string]*analysis.TrendAnalysisResult, changes map[string]analysis.TrendChange) (subject, html string) {
	symbols := make([]string, 0, len(results))
	for symbol := range results {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	sort.SliceStable(symbols, func(i, j int) bool {
		_, ci := changes[symbols[i]]
		_, cj := changes[symbols[j]]
		return ci && !cj
	})

	sessionTitle := "Pre-Market"
	if session == models.SessionPostMarket {
		sessionTitle = "Post-Market"
	}
	subject = fmt.Sprintf("📊 %s Trend Report (%d symbols)", sessionTitle, len(symbols))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p><p>%s trend analysis:</p>", name, sessionTitle))
	sb.WriteString(fmt.Sprintf(`<table style="%s"><tr>`, tableStyle))
	for _, h := range []string{"Symbol", "Trend", "Change", "Signal", "Buy", "Sell", "RSI", "Close"} {
		sb.WriteString(fmt.Sprintf(`<th style="%s">%s</th>`, headStyle, h))
	}
	sb.WriteString("</tr>")
	for _, symbol := range symbols {
		r := results[symbol]
		changeCell := "-"
		if change, ok := changes[symbol]; ok {
			changeCell = fmt.Sprintf("<b>%s → %s</b>", change.From, change.To)
		}
		sb.WriteString("<tr>")
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, symbol))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, trendBadge(r.CurrentTrend())))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, changeCell))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, strings.ToUpper(string(r.Signal))))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%.2f</td>`, cellStyle, r.BuyScore))
		sb.WriteString(fmt.Sprintf(`<td style="%s">%.2f</td>`, cellStyle, r.SellScore))
		if r.Indicators != nil {
			sb.WriteString(fmt.Sprintf(`<td style="%s">%.1f</td>`, cellStyle, r.Indicators.RSI))
			sb.WriteString(fmt.Sprintf(`<td style="%s">%.2f</td>`, cellStyle, r.Indicators.Close))
		} else {
			sb.WriteString(fmt.Sprintf(`<td style="%s">-</td><td style="%s">-</td>`, cellStyle, cellStyle))
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return subject, sb.String()
}

func trendBadge(label analysis.TrendLabel) string {
	switch label {
	case analysis.TrendUp:
		return "📈 up"
	case analysis.TrendDown:
		return "📉 down"
	default:
		return "➖ flat"
	}
}
