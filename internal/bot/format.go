package bot

import (
	"fmt"
	"strings"
	"time"

	"seat_tracker/internal/model"
)

const lastCheckLayout = "2006-01-02 15:04:05 UTC"

const commandList = `📌 *Commands:*
/both — @UNI + @HOME _(default)_
/uni — @UNI only
/home — @HOME only
/status — tracker stats
/stop — unsubscribe`

// FormatWelcome is the reply to /start.
func FormatWelcome(chatID int64) string {
	return fmt.Sprintf(`✅ *CENT-S Seat Tracker — Connected!*

🤖 Monitoring *testcisia.it* 24/7
Alert fires the instant seats open.

🆔 Your Chat ID: `+"`%d`"+`

%s`, chatID, commandList)
}

// FormatAlert formats an open slot as a Telegram alert.
func FormatAlert(slot model.Slot, bookingURL string) string {
	icon := "🏠"
	if slot.AtUni {
		icon = "🏛"
	}

	var b strings.Builder
	b.WriteString("🚨 *CENT-S SEAT AVAILABLE!*\n\n")
	fmt.Fprintf(&b, "%s *%s*\n", icon, slot.Format)
	fmt.Fprintf(&b, "🏫 %s\n", slot.Institution)
	fmt.Fprintf(&b, "📍 %s, %s\n", slot.City, slot.Region)
	fmt.Fprintf(&b, "🗓 Test: `%s`\n", slot.TestDate)
	fmt.Fprintf(&b, "⏰ Deadline: `%s`\n", slot.Deadline)
	fmt.Fprintf(&b, "💺 Seats: *%d*\n", slot.Seats)
	if bookingURL != "" {
		fmt.Fprintf(&b, "\n👉 Book: %s\n", bookingURL)
	}
	b.WriteString("\n⚡ _Be quick — seats fill fast!_")
	return b.String()
}

// FormatStatus formats the run metrics for the /status command.
func FormatStatus(m model.RunMetrics, users int) string {
	var b strings.Builder
	b.WriteString("📊 *Tracker Status*\n\n")
	fmt.Fprintf(&b, "🩺 State: %s\n", m.Status)
	fmt.Fprintf(&b, "🔄 Checks: %d\n", m.Checks)
	fmt.Fprintf(&b, "🕐 Last: %s\n", FormatLastCheck(m.LastCheck))
	fmt.Fprintf(&b, "💺 Available now: %d\n", len(m.Available))
	fmt.Fprintf(&b, "📨 Alerts sent: %d\n", m.AlertsSent)
	fmt.Fprintf(&b, "👥 Registered: %d", users)
	return b.String()
}

// FormatLastCheck renders the time of the last poll cycle, or "never".
func FormatLastCheck(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(lastCheckLayout)
}

// FormatPreferenceSet confirms a preference change.
func FormatPreferenceSet(pref model.Preference) string {
	switch pref {
	case model.PreferenceUni:
		return "✅ You'll get alerts for *@UNI* seats only."
	case model.PreferenceHome:
		return "✅ You'll get alerts for *@HOME* seats only."
	default:
		return "✅ You'll get alerts for *both @UNI and @HOME* seats."
	}
}

// FormatRegistered is sent to chats registered through the website.
func FormatRegistered(pref model.Preference) string {
	return fmt.Sprintf(`✅ *Connected via website!*

🎯 Filter: *%s*
🔔 Alerts fire instantly when seats open.

Commands: /both · /uni · /home · /status · /stop`, strings.ToUpper(string(pref)))
}

const (
	msgNotSubscribed = "You are not subscribed yet. Send /start first."
	msgStopped       = "🛑 Unsubscribed. Send /start anytime to re-subscribe."
	msgAccessDenied  = "Access denied."
)
