package scraper

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

// Record is one raw vacancy: the listing item plus the optional detail document
// fetched for it. Lookups prefer the detail document.
type Record struct {
	Item   gjson.Result
	Detail gjson.Result
}

// Get resolves a gjson path, detail first
func (r Record) Get(path string) gjson.Result {
	if r.Detail.Exists() {
		if v := r.Detail.Get(path); v.Exists() {
			return v
		}
	}
	return r.Item.Get(path)
}

// StringRule extracts a text field. An empty result means absent.
type StringRule func(Record) string

// IntRule extracts an optional number
type IntRule func(Record) *int

// TimeRule extracts an optional timestamp; now anchors relative dates
type TimeRule func(r Record, now time.Time) *time.Time

// Path reads the string value at a gjson path
func Path(path string) StringRule {
	return func(r Record) string {
		v := r.Get(path)
		if v.Type == gjson.Null {
			return ""
		}
		return strings.TrimSpace(v.String())
	}
}

// FirstOf returns the first rule yielding a non-empty value
func FirstOf(rules ...StringRule) StringRule {
	return func(r Record) string {
		for _, rule := range rules {
			if v := rule(r); v != "" {
				return v
			}
		}
		return ""
	}
}

// Join concatenates the non-empty results of rules
func Join(sep string, rules ...StringRule) StringRule {
	return func(r Record) string {
		var parts []string
		for _, rule := range rules {
			if v := rule(r); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, sep)
	}
}

// Translate maps a present value through fn
func Translate(rule StringRule, fn func(string) string) StringRule {
	return func(r Record) string {
		v := rule(r)
		if v == "" {
			return ""
		}
		return fn(v)
	}
}

// HTMLText converts rich text to markdown
func HTMLText(rule StringRule) StringRule {
	return Translate(rule, normalize.HTMLToText)
}

// CodePath maps a numeric code at path through fn. A missing code stays absent.
func CodePath(path string, fn func(int) string) StringRule {
	return func(r Record) string {
		v := r.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			return ""
		}
		return fn(int(v.Int()))
	}
}

// IntPath reads an optional number at path
func IntPath(path string) IntRule {
	return func(r Record) *int {
		v := r.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			return nil
		}
		if v.Type == gjson.String && strings.TrimSpace(v.Str) == "" {
			return nil
		}
		n := int(v.Int())
		return &n
	}
}

// NonZeroIntPath reads a number at path treating zero as absent
func NonZeroIntPath(path string) IntRule {
	return func(r Record) *int {
		return normalize.NonZero(IntPath(path)(r))
	}
}

// TimePath parses the date text at path
func TimePath(path string) TimeRule {
	return func(r Record, now time.Time) *time.Time {
		return normalize.ParseDate(Path(path)(r), now)
	}
}

// UnixPath reads a unix timestamp at path
func UnixPath(path string) TimeRule {
	return func(r Record, _ time.Time) *time.Time {
		return normalize.FromUnix(r.Get(path).Int())
	}
}

// Mapping is a declarative raw to canonical field table. Nil rules yield the field default.
type Mapping struct {
	URL     StringRule
	Title   StringRule
	City    StringRule
	Company StringRule

	SalaryFrom     IntRule
	SalaryTo       IntRule
	SalaryCurrency StringRule
	// SalaryRange is free text like "от 100 000 ₽", used by sources without numeric salaries
	SalaryRange StringRule

	Employment     StringRule
	Experience     StringRule
	Schedule       StringRule
	Description    StringRule
	Responsibility StringRule
	Requirement    StringRule

	PublishedAt TimeRule
}

// Canonical evaluates the table against one raw record. It never fails: every
// missing field degrades to its documented default.
func (m Mapping) Canonical(src domain.Source, r Record, now time.Time) domain.Vacancy {
	schedule := str(m.Schedule, r)

	v := domain.Vacancy{
		JobBoard:       src,
		URL:            normalize.Optional(str(m.URL, r)),
		Title:          normalize.Optional(str(m.Title, r)),
		City:           normalize.Optional(str(m.City, r)),
		Company:        normalize.Optional(str(m.Company, r)),
		SalaryFrom:     num(m.SalaryFrom, r),
		SalaryTo:       num(m.SalaryTo, r),
		SalaryCurrency: str(m.SalaryCurrency, r),
		Employment:     normalize.OrDefault(str(m.Employment, r), normalize.NotSpecified),
		Experience:     normalize.OrDefault(str(m.Experience, r), normalize.NotSpecified),
		Schedule:       normalize.OrDefault(schedule, normalize.NotSpecified),
		Remote:         normalize.IsRemote(schedule),
		Description:    normalize.OrDefault(str(m.Description, r), normalize.NoDescription),
		Responsibility: normalize.OrDefault(str(m.Responsibility, r), normalize.NoDescription),
		Requirement:    normalize.OrDefault(str(m.Requirement, r), normalize.NoDescription),
	}

	if m.SalaryRange != nil && v.SalaryFrom == nil && v.SalaryTo == nil {
		from, to, currency := normalize.ParseSalaryRange(m.SalaryRange(r))
		v.SalaryFrom, v.SalaryTo = from, to
		if v.SalaryCurrency == "" {
			v.SalaryCurrency = currency
		}
	}
	v.SalaryText = normalize.SalaryText(v.SalaryFrom, v.SalaryTo, v.SalaryCurrency)

	if m.PublishedAt != nil {
		v.PublishedAt = m.PublishedAt(r, now)
	}
	return v
}

func str(rule StringRule, r Record) string {
	if rule == nil {
		return ""
	}
	return rule(r)
}

func num(rule IntRule, r Record) *int {
	if rule == nil {
		return nil
	}
	return rule(r)
}
