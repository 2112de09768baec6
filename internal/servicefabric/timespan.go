package servicefabric

import (
	"fmt"
	"time"
)

// FormatSeconds renders a duration in seconds the way the provider stores
// time spans: "hh:mm:ss", with a "d." day prefix past 24 hours.
//
//	FormatSeconds(300)   == "00:05:00"
//	FormatSeconds(7000)  == "01:56:40"
//	FormatSeconds(90061) == "1.01:01:01"
func FormatSeconds(seconds int64) string {
	return FormatDuration(time.Duration(seconds) * time.Second)
}

// FormatDuration is FormatSeconds for a time.Duration; sub-second parts are dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if days > 0 {
		return fmt.Sprintf("%d.%02d:%02d:%02d", days, hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
