package analysis

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultRetryAfter is used when a throttling message carries no parsable
// delay.
const DefaultRetryAfter = 5 * time.Second

var retryAfterPattern = regexp.MustCompile(`retry after (\d+)`)

// ParseRetryAfter extracts the wait duration from a free-text throttling
// message such as "Rate limit exceeded, retry after 3 seconds". Messages
// without the pattern fall back to DefaultRetryAfter.
func ParseRetryAfter(msg string) time.Duration {
	match := retryAfterPattern.FindStringSubmatch(msg)
	if match == nil {
		return DefaultRetryAfter
	}

	seconds, err := strconv.Atoi(match[1])
	if err != nil || seconds < 0 {
		return DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
