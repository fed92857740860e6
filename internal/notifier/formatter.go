package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"go.uber.org/zap"

	"ETFDesk/internal/format"
	"ETFDesk/internal/model"
)

// HelpText lists the bot commands.
const HelpText = "📘 <b>ETF Desk</b>\n\n" +
	"/analyze &lt;code&gt; - Bollinger tiers for a fund, e.g. /analyze 510300\n" +
	"&lt;code&gt; - same as /analyze\n" +
	"/history - your recent codes"

var signalIcon = map[model.Signal]string{
	model.SignalSell: "🔴",
	model.SignalBuy:  "🟢",
	model.SignalHold: "⚪",
}

// FormatAnalysis formats an analysis into a Telegram HTML message.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s%s\n\n",
		html.EscapeString(a.Instrument.Name), a.Instrument.Market, a.Instrument.Code))

	b.WriteString(fmt.Sprintf("Price: %s\n", format.Price(a.Quote.Price)))
	b.WriteString(fmt.Sprintf("MA%d: %s | σ: %s\n", a.Bands.Window, format.Price(a.Bands.MovingAverage), format.Price(a.Bands.StdDev)))
	b.WriteString(fmt.Sprintf("Upper: %s | Lower: %s\n\n", format.Price(a.Bands.Upper), format.Price(a.Bands.Lower)))

	if table, err := tierTable(a.Tiers); err == nil {
		b.WriteString("<pre>")
		b.WriteString(html.EscapeString(table))
		b.WriteString("</pre>\n")
	} else {
		zap.L().Warn("render tier table", zap.Error(err))
		for _, t := range a.Tiers.Sell {
			b.WriteString(fmt.Sprintf("Sell %s: %s\n", html.EscapeString(t.Label), format.Price(t.Price)))
		}
		for _, t := range a.Tiers.Buy {
			b.WriteString(fmt.Sprintf("Buy %s: %s\n", html.EscapeString(t.Label), format.Price(t.Price)))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n%s", signalIcon[a.Signal], a.Signal, a.Signal.Advice()))
	if n := len(a.Bars); n > 0 {
		b.WriteString(fmt.Sprintf("\n\n<i>%d bars to %s</i>", n, a.Bars[n-1].Date.Format("2006-01-02")))
	}
	return b.String()
}

func tierTable(ts model.TierSet) (string, error) {
	var b strings.Builder
	table := tablewriter.NewTable(&b,
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAlignment(tw.AlignRight),
	)
	table.Header("Side", "Tier", "Price")
	for _, t := range ts.Sell {
		if err := table.Append([]string{"Sell", t.Label, format.Price(t.Price)}); err != nil {
			return "", fmt.Errorf("append sell tier: %w", err)
		}
	}
	for _, t := range ts.Buy {
		if err := table.Append([]string{"Buy", t.Label, format.Price(t.Price)}); err != nil {
			return "", fmt.Errorf("append buy tier: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return b.String(), nil
}

// FormatHistory lists recent codes, oldest first.
func FormatHistory(codes []string) string {
	if len(codes) == 0 {
		return "🕘 No queries yet. Send a fund code such as 510300."
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Recent codes</b>\n\n")
	for _, c := range codes {
		b.WriteString(fmt.Sprintf("/analyze %s\n", c))
	}
	return b.String()
}

// FormatError formats a user-facing error message.
func FormatError(code, msg string) string {
	return fmt.Sprintf("⚠️ <b>%s</b>\n%s", html.EscapeString(code), html.EscapeString(msg))
}
