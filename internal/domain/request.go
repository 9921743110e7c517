package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DateLayout is the wire format of search dates
const DateLayout = "2006-01-02"

// DefaultLookbackDays is how far back date_from reaches when the caller leaves it empty
const DefaultLookbackDays = 3

// RawSearch is the search form as submitted by a caller
type RawSearch struct {
	Title      string `json:"title" yaml:"title"`
	City       string `json:"city" yaml:"city"`
	DateFrom   string `json:"date_from" yaml:"date_from"`
	DateTo     string `json:"date_to" yaml:"date_to"`
	Experience int    `json:"experience" yaml:"experience"`
	Remote     bool   `json:"remote" yaml:"remote"`
	Source     string `json:"source" yaml:"source"`
}

// RequestSpec is the normalized, read-only search criteria for one request
type RequestSpec struct {
	title      string
	city       string
	dateFrom   time.Time
	dateTo     time.Time
	experience int
	remote     bool
	source     Source
}

// NewRequestSpec builds the criteria from raw input. now anchors the default date range.
func NewRequestSpec(raw RawSearch, now time.Time, lookbackDays int) RequestSpec {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	today := truncateDay(now)

	spec := RequestSpec{
		title:      strings.TrimSpace(raw.Title),
		city:       cases.Fold().String(strings.TrimSpace(raw.City)),
		dateFrom:   parseDate(raw.DateFrom, today.AddDate(0, 0, -lookbackDays)),
		dateTo:     parseDate(raw.DateTo, today),
		experience: raw.Experience,
		remote:     raw.Remote,
		source:     ParseSource(raw.Source),
	}
	if spec.experience < 0 || spec.experience > 4 {
		spec.experience = 0
	}
	return spec
}

// Title is the keyword exactly as typed. Title filtering is case-sensitive.
func (s RequestSpec) Title() string { return s.title }

// City is the case-folded city name
func (s RequestSpec) City() string { return s.city }

func (s RequestSpec) DateFrom() time.Time { return s.dateFrom }

func (s RequestSpec) DateTo() time.Time { return s.dateTo }

// Experience is the bucket 0..4, 0 meaning any
func (s RequestSpec) Experience() int { return s.experience }

func (s RequestSpec) Remote() bool { return s.remote }

func (s RequestSpec) Source() Source { return s.source }

// Wants reports whether the given source takes part in this search
func (s RequestSpec) Wants(src Source) bool {
	return s.source == SourceAll || s.source == src
}

// Fingerprint identifies the normalized criteria. Equal searches share a fingerprint.
func (s RequestSpec) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{
		s.title,
		s.city,
		s.dateFrom.Format(DateLayout),
		s.dateTo.Format(DateLayout),
		strconv.Itoa(s.experience),
		strconv.FormatBool(s.remote),
		string(s.source),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func parseDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	t, err := time.ParseInLocation(DateLayout, value, fallback.Location())
	if err != nil {
		return fallback
	}
	return t
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
