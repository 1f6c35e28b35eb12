package risk

import "time"

// now is swapped out in tests.
var now = time.Now

// today truncates to the UTC calendar day used by the circular-trading rule.
func today() time.Time {
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
