package radius

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExpirationFormat is the timestamp layout FreeRADIUS parses in the
// Expiration check attribute.
const ExpirationFormat = "2006-01-02 15:04:05"

var validityPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*(minute|hour|day|week|month|year)s?\s*$`)

// ComputeExpiry resolves a package validity string like "30 days" or
// "1 Month" against a base time. Anything unparseable or non-positive
// falls back to base plus one hour rather than failing; legacy data
// carries typos and a short grace beats a lockout.
func ComputeExpiry(validity string, base time.Time) time.Time {
	m := validityPattern.FindStringSubmatch(validity)
	if m == nil {
		return base.Add(time.Hour)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return base.Add(time.Hour)
	}
	switch strings.ToLower(m[2]) {
	case "minute":
		return base.Add(time.Duration(n) * time.Minute)
	case "hour":
		return base.Add(time.Duration(n) * time.Hour)
	case "day":
		return base.AddDate(0, 0, n)
	case "week":
		return base.AddDate(0, 0, n*7)
	case "month":
		return base.AddDate(0, n, 0)
	case "year":
		return base.AddDate(n, 0, 0)
	}
	return base.Add(time.Hour)
}

// SessionTimeout returns the Session-Timeout value for an expiry: the
// seconds remaining, floored at one minute so a nearly expired account
// still gets a usable session.
func SessionTimeout(expiry, now time.Time) int64 {
	secs := int64(expiry.Sub(now).Seconds())
	if secs < 60 {
		return 60
	}
	return secs
}

var rateUnitPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*M(?:bps)?\s*$`)

// normalizeRate canonicalizes a single direction: "10Mbps", "10 Mbps" and
// "10M" all become "10M". Unrecognized input is passed through trimmed.
func normalizeRate(v string) string {
	if m := rateUnitPattern.FindStringSubmatch(v); m != nil {
		return m[1] + "M"
	}
	return strings.TrimSpace(v)
}

// RateLimit formats a Mikrotik-Rate-Limit value as "down/up", or returns
// empty when neither direction is set.
func RateLimit(download, upload string) string {
	d := normalizeRate(download)
	u := normalizeRate(upload)
	if d == "" && u == "" {
		return ""
	}
	if d == "" {
		d = u
	}
	if u == "" {
		u = d
	}
	return d + "/" + u
}
