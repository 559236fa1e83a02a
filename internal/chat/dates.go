package chat

import (
	"fmt"
	"time"
)

// RelativeDate labels t relative to now by calendar day in now's location.
// Future dates read as "Today".
func RelativeDate(now, t time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(now.Location()).Date()
	today := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	then := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(then).Hours() / 24)

	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 14:
		return "1 week ago"
	default:
		return fmt.Sprintf("%d weeks ago", days/7)
	}
}
