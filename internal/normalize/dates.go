package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
}

var russianMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

var (
	russianDateRe = regexp.MustCompile(`(\d{1,2})\s+([а-я]+)(?:\s+(\d{4}))?`)
	daysAgoRe     = regexp.MustCompile(`(\d+)\s*(?:день|дня|дней)`)
	hoursAgoRe    = regexp.MustCompile(`(\d+)\s*(?:час|часа|часов)`)
)

// ParseDate understands ISO layouts, "12 марта 2023", "12 марта" and relative
// phrases like "сегодня" or "3 дня назад". Results are in UTC; nil when unparsable.
func ParseDate(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			t = t.UTC()
			return &t
		}
	}

	lower := strings.ToLower(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case strings.Contains(lower, "сегодня"):
		return &today
	case strings.Contains(lower, "вчера"):
		t := today.AddDate(0, 0, -1)
		return &t
	}

	if m := russianDateRe.FindStringSubmatch(lower); m != nil {
		if month, ok := russianMonths[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			t := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
			if m[3] != "" {
				year, _ := strconv.Atoi(m[3])
				t = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			} else if t.After(today) {
				// a date without a year is never in the future
				t = t.AddDate(-1, 0, 0)
			}
			return &t
		}
	}

	if m := daysAgoRe.FindStringSubmatch(lower); m != nil {
		days, _ := strconv.Atoi(m[1])
		t := today.AddDate(0, 0, -days)
		return &t
	}
	if m := hoursAgoRe.FindStringSubmatch(lower); m != nil {
		hours, _ := strconv.Atoi(m[1])
		t := now.UTC().Add(-time.Duration(hours) * time.Hour)
		return &t
	}

	return nil
}

// FromUnix converts a unix timestamp in seconds, nil for zero
func FromUnix(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
