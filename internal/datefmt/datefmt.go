// Package datefmt renders message timestamps relative to now.
package datefmt

import "time"

// Format shows the time of day for timestamps on the same calendar day as
// now, and month/day otherwise. t is converted to now's location first.
func Format(t, now time.Time) string {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("3:04 PM")
	}
	return t.Format("Jan 2")
}
