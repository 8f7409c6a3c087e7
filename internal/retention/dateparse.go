package retention

import (
	"regexp"
	"time"
)

// dateTokenPattern matches an 8 digit date followed by a 6 digit time, with
// an optional single delimiter between them.
var dateTokenPattern = regexp.MustCompile(`(\d{8})[-_T.]?(\d{6})`)

const dateTokenLayout = "20060102150405"

// ExtractDate parses the creation timestamp from an artifact name such as
// vaultwarden-20231127-090000.tar.gz. The time is read as local wall clock
// time. Only the first date token in the name is considered; it reports
// false when there is none or when its digits do not form a valid time.
func ExtractDate(name string) (time.Time, bool) {
	return extractDateIn(name, time.Local)
}

func extractDateIn(name string, loc *time.Location) (time.Time, bool) {
	match := dateTokenPattern.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(dateTokenLayout, match[1]+match[2], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
