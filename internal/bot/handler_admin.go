package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/eliseohh/planbot/internal/dispatch"
	"github.com/eliseohh/planbot/internal/visits"
)

const accessDenied = "❌ Access denied: This command is for admins only."

func (b *Bot) registerAdmin() {
	b.api.Handle("/stats", b.handleStats)
	b.api.Handle("/debug", b.handleDebug)
}

func (b *Bot) handleStats(c tele.Context) error {
	resp, err := b.core.OnStatsRequested(b.requestContext(c), visitorID(c))
	if errors.Is(err, dispatch.ErrForbidden) {
		return c.Send(accessDenied)
	}
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Error retrieving stats: %v", err))
	}
	return c.Send(formatStats(resp))
}

func (b *Bot) handleDebug(c tele.Context) error {
	resp, err := b.core.OnDebugRequested(b.requestContext(c), visitorID(c))
	if errors.Is(err, dispatch.ErrForbidden) {
		return c.Send(accessDenied)
	}
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Debug error: %v", err))
	}
	return c.Send(formatDebug(resp.Store))
}

func formatStats(resp dispatch.Response) string {
	var sb strings.Builder
	sb.WriteString("📊 Bot Statistics:\n")
	fmt.Fprintf(&sb, "• Total visits: %d\n", resp.Stats.TotalVisits)
	fmt.Fprintf(&sb, "• Unique users: %d\n", resp.Stats.UniqueVisitors)
	fmt.Fprintf(&sb, "• Last updated: %s\n", resp.Stats.ComputedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "• Store: %s (%s)\n", resp.Store.Location, resp.Store.Backend)
	fmt.Fprintf(&sb, "• Store exists: %t", resp.Store.Exists)
	if resp.Stats.Degraded {
		sb.WriteString("\n⚠️ Visit log unreadable, counts shown as zero")
	}
	return sb.String()
}

func formatDebug(info visits.Info) string {
	var sb strings.Builder
	sb.WriteString("🔍 Debug Information:\n")
	fmt.Fprintf(&sb, "• Backend: %s\n", info.Backend)
	fmt.Fprintf(&sb, "• Location: %s\n", info.Location)
	fmt.Fprintf(&sb, "• Exists: %t\n", info.Exists)
	if !info.Exists {
		return sb.String()
	}
	fmt.Fprintf(&sb, "• Size: %d bytes\n", info.SizeBytes)
	fmt.Fprintf(&sb, "• Number of lines: %d\n", info.Lines)
	sb.WriteString("• Sample content (first 5 lines or less):\n")
	for i, line := range info.Sample {
		fmt.Fprintf(&sb, "  %d: %s\n", i+1, line)
	}
	return sb.String()
}
