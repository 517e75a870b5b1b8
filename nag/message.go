package nag

import (
	"fmt"

	"github.com/jrsteele09/go-nagbot/tasks"
)

// ComposeMessage renders the reminder text for item
func ComposeMessage(item tasks.Item, d Decision) string {
	subject := item.Title
	if subject == "" {
		subject = "Untitled task"
	}

	if d.DaysUntilDue >= 0 {
		return fmt.Sprintf("Reminder: %s\nDue in %s.", subject, days(d.DaysUntilDue))
	}
	return fmt.Sprintf("Reminder: %s\nOverdue by %s.", subject, days(-d.DaysUntilDue))
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
