package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// RelativeDate is a "within the last ..." date filter
type RelativeDate string

const (
	RelativeNone        RelativeDate = ""
	RelativeLastWeek    RelativeDate = "-1 week"
	RelativeLastMonth   RelativeDate = "-1 month"
	RelativeLast3Months RelativeDate = "-3 month"
	RelativeLastYear    RelativeDate = "-1 year"
)

// RelativeDates lists the supported relative ranges
var RelativeDates = []RelativeDate{
	RelativeLastWeek,
	RelativeLastMonth,
	RelativeLast3Months,
	RelativeLastYear,
}

var relativeDatePattern = regexp.MustCompile(`^(created|added):\[(-\d+ (?:week|month|year)) to now\]$`)

// relativeDateQuery renders the full-text fragment for field ("created" or "added")
func relativeDateQuery(field string, rd RelativeDate) string {
	return fmt.Sprintf("%s:[%s to now]", field, rd)
}

func knownRelativeDate(s string) (RelativeDate, bool) {
	for _, rd := range RelativeDates {
		if string(rd) == s {
			return rd, true
		}
	}
	return RelativeNone, false
}

// splitFulltextQuery separates relative-date fragments from free query text
func splitFulltextQuery(value string) (text string, created, added RelativeDate) {
	var rest []string
	for _, part := range strings.Split(value, ",") {
		match := relativeDatePattern.FindStringSubmatch(strings.TrimSpace(part))
		if match == nil {
			rest = append(rest, part)
			continue
		}
		rd, ok := knownRelativeDate(match[2])
		if !ok {
			rest = append(rest, part)
			continue
		}
		if match[1] == "created" {
			created = rd
		} else {
			added = rd
		}
	}
	return strings.Join(rest, ","), created, added
}

// joinFulltextQuery appends relative-date fragments to free query text
func joinFulltextQuery(text string, created, added RelativeDate) string {
	parts := make([]string, 0, 3)
	if text != "" {
		parts = append(parts, text)
	}
	if created != RelativeNone {
		parts = append(parts, relativeDateQuery("created", created))
	}
	if added != RelativeNone {
		parts = append(parts, relativeDateQuery("added", added))
	}
	return strings.Join(parts, ",")
}
