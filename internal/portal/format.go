package portal

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// FormatDate renders an ISO date ("2006-01-02") or RFC 3339 timestamp as
// "2 January 2006". Unparseable input is returned unchanged.
func FormatDate(value string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2 January 2006")
		}
	}
	return value
}

// FormatDateTime renders a timestamp as "2 January 2006 15:04".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006 15:04")
}

// FormatTime trims a clock value to hours and minutes.
func FormatTime(value string) string {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) < 2 {
		return value
	}
	return parts[0] + ":" + parts[1]
}

// Initials returns up to two upper-case initials of name, or "U" when the
// name is blank.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}
