package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	colorInfo     = 0x5865F2
	colorProgress = 0x3BA55D
	colorWarn     = 0xFEE75C
	colorWin      = 0xF1C40F
	colorCritical = 0xED4245

	shortIDLimit  = 12
	defaultFooter = "sweeps-casino tournaments"
)

// FormatMessage renders the lifecycle events worth a chat message. Other
// events return false and are only delivered to raw webhooks.
func FormatMessage(ev Notification) (FormattedMessage, bool) {
	name := fallback(stringField(ev.Raw, "name"), shortID(fallback(ev.TournamentID, "unknown"), shortIDLimit))
	fields := make([]MessageField, 0, 6)
	base := FormattedMessage{
		Timestamp: eventTimestamp(ev.ServerTS),
		Footer:    defaultFooter,
	}

	switch ev.EventType {
	case "tournament_scheduled":
		base.Title = fmt.Sprintf("Scheduled · %s", name)
		base.Content = "tournament scheduled"
		base.Description = fmt.Sprintf("%s opens for registration.", name)
		base.Color = colorInfo
		fields = append(fields,
			MessageField{Name: "Game", Value: fallback(ev.GameType, "-"), Inline: true},
			MessageField{Name: "Type", Value: fallback(stringField(ev.Raw, "type"), "-"), Inline: true},
			MessageField{Name: "Starts", Value: fallback(stringField(ev.Raw, "start_time"), "when full"), Inline: true},
		)
	case "tournament_started":
		base.Title = fmt.Sprintf("Started · %s", name)
		base.Content = "tournament started"
		base.Description = fmt.Sprintf("Registration closed with %d players.", ev.Players)
		base.Color = colorProgress
		fields = append(fields,
			MessageField{Name: "Players", Value: strconv.Itoa(ev.Players), Inline: true},
			MessageField{Name: "Prize pool", Value: poolText(ev.Raw), Inline: true},
			MessageField{Name: "Trigger", Value: fallback(stringField(ev.Raw, "trigger"), "-"), Inline: true},
		)
	case "tournament_break":
		base.Title = fmt.Sprintf("Break · %s", name)
		base.Content = "tournament on break"
		base.Description = fmt.Sprintf("Break after level %d.", ev.Level)
		base.Color = colorWarn
		fields = append(fields, MessageField{Name: "Level", Value: strconv.Itoa(ev.Level), Inline: true})
	case "player_eliminated":
		base.Title = fmt.Sprintf("Eliminated · %s", name)
		base.Content = fmt.Sprintf("%s out in position %d", fallback(ev.PlayerID, "player"), ev.Position)
		base.Description = fmt.Sprintf("Player %s finished in position %d.", fallback(ev.PlayerID, "-"), ev.Position)
		base.Color = colorWarn
		fields = append(fields,
			MessageField{Name: "Player", Value: fallback(ev.PlayerID, "-"), Inline: true},
			MessageField{Name: "Position", Value: strconv.Itoa(ev.Position), Inline: true},
			MessageField{Name: "Remaining", Value: intText(ev.Raw, "remaining"), Inline: true},
		)
	case "tournament_finished":
		base.Title = fmt.Sprintf("Finished · %s", name)
		base.Content = "tournament finished"
		base.Description = "Final standings are in."
		base.Color = colorWin
		fields = append(fields, payoutLines(ev.Raw)...)
	case "tournament_cancelled":
		base.Title = fmt.Sprintf("Cancelled · %s", name)
		base.Content = "tournament cancelled"
		base.Description = "Tournament cancelled; buy-ins refunded."
		base.Color = colorCritical
		if ev.Reason != "" {
			fields = append(fields, MessageField{Name: "Reason", Value: ev.Reason, Inline: true})
		}
	default:
		return FormattedMessage{}, false
	}

	base.Fields = fields
	return base, true
}

func payoutLines(raw map[string]any) []MessageField {
	result, _ := raw["result"].(map[string]any)
	payouts, _ := result["payouts"].([]any)
	out := make([]MessageField, 0, len(payouts))
	for i, p := range payouts {
		if i == 3 {
			break
		}
		row, _ := p.(map[string]any)
		out = append(out, MessageField{
			Name:   "#" + intText(row, "position"),
			Value:  fmt.Sprintf("%s · %s GC / %s SC", fallback(stringField(row, "name"), stringField(row, "player_id")), intText(row, "gc"), intText(row, "sc")),
			Inline: false,
		})
	}
	return out
}

func poolText(raw map[string]any) string {
	pool, ok := raw["prize_pool"].(map[string]any)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s GC / %s SC", intText(pool, "gc"), intText(pool, "sc"))
}

func intText(m map[string]any, key string) string {
	if v := intValue(m, key); v != nil {
		return strconv.Itoa(*v)
	}
	return "-"
}

func shortID(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max]
}

func eventTimestamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
