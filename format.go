package unireservas

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// timestampLayouts are the forms the backend uses for created_at and friends.
// Naive timestamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// ParseTimestamp reads a backend timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatLastMessageTime renders the age of a chat's last message for the
// chat list: "Agora" under a minute, then minutes, hours and days, and the
// day/month date once it is a week old.
func FormatLastMessageTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Agora"
	case d < time.Hour:
		return fmt.Sprintf("%dmin", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return t.In(now.Location()).Format("02/01")
}

// FormatMessageDate renders a message timestamp inside a thread: the time of
// day for today, "Ontem" for yesterday, the full date otherwise.
func FormatMessageDate(t, now time.Time) string {
	t = t.In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()); {
	case day.Equal(today):
		return t.Format("15:04")
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Ontem"
	}
	return t.Format("02/01/2006")
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatPrice renders an amount in reais, e.g. "R$ 1.250,00".
func FormatPrice(v float64) string {
	return brl.Sprintf("R$ %.2f", v)
}
