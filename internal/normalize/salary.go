package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var salaryNumberRe = regexp.MustCompile(`\d[\d\s\x{00a0}\x{202f}]*`)

// NonZero treats a zero salary reported by a source as absent
func NonZero(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

// ParseSalaryRange reads a salary span such as "от 100 000 до 150 000 ₽" or "до 90 000 руб."
func ParseSalaryRange(text string) (from, to *int, currency string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ""
	}
	currency = detectCurrency(text)

	var values []int
	for _, raw := range salaryNumberRe.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, raw)
		if n, err := strconv.Atoi(digits); err == nil {
			values = append(values, n)
		}
	}

	lower := strings.ToLower(text)
	switch len(values) {
	case 0:
		return nil, nil, currency
	case 1:
		v := values[0]
		if strings.HasPrefix(lower, "до") {
			return nil, NonZero(&v), currency
		}
		return NonZero(&v), nil, currency
	default:
		f, t := values[0], values[1]
		return NonZero(&f), NonZero(&t), currency
	}
}

func detectCurrency(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "₽"), strings.Contains(lower, "руб"):
		return "RUR"
	case strings.Contains(text, "$"), strings.Contains(lower, "usd"):
		return "USD"
	case strings.Contains(text, "€"), strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(text, "₸"), strings.Contains(lower, "kzt"):
		return "KZT"
	}
	return ""
}

// SalaryText renders a human readable salary fork, e.g. "от 100 000 RUR"
func SalaryText(from, to *int, currency string) string {
	var text string
	switch {
	case from != nil && to != nil:
		text = formatAmount(*from) + " – " + formatAmount(*to)
	case from != nil:
		text = "от " + formatAmount(*from)
	case to != nil:
		text = "до " + formatAmount(*to)
	default:
		return NotSpecified
	}
	if currency != "" {
		text += " " + currency
	}
	return text
}

func formatAmount(n int) string {
	return humanize.FormatInteger("# ###.", n)
}
