package domain

import (
	"time"
)

// Source identifies the job board a vacancy was collected from
type Source string

const (
	SourceAll      Source = "all"
	SourceHH       Source = "hh"
	SourceZarplata Source = "zarplata"
	SourceSuperJob Source = "superjob"
	SourceTrudvsem Source = "trudvsem"
	SourceHabr     Source = "habr"
	SourceGeekJob  Source = "geekjob"
)

// AllSources returns every concrete source in dispatch order
func AllSources() []Source {
	return []Source{
		SourceHH,
		SourceZarplata,
		SourceSuperJob,
		SourceTrudvsem,
		SourceHabr,
		SourceGeekJob,
	}
}

// ParseSource resolves a caller-supplied source filter. Anything unknown means all sources.
func ParseSource(s string) Source {
	for _, src := range AllSources() {
		if string(src) == s {
			return src
		}
	}
	return SourceAll
}

// Vacancy is the canonical record every source is mapped into
type Vacancy struct {
	JobBoard       Source     `json:"job_board"`
	URL            *string    `json:"url"`
	Title          *string    `json:"title"`
	SalaryFrom     *int       `json:"salary_from"`
	SalaryTo       *int       `json:"salary_to"`
	SalaryCurrency string     `json:"salary_currency"`
	SalaryText     string     `json:"salary_text"`
	City           *string    `json:"city"`
	Company        *string    `json:"company"`
	Employment     string     `json:"employment"`
	Experience     string     `json:"experience"`
	Schedule       string     `json:"schedule"`
	Remote         bool       `json:"remote"`
	Description    string     `json:"description"`
	Responsibility string     `json:"responsibility"`
	Requirement    string     `json:"requirement"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// Link returns the vacancy url or an empty string
func (v Vacancy) Link() string {
	if v.URL == nil {
		return ""
	}
	return *v.URL
}

// TitleText returns the vacancy title or an empty string
func (v Vacancy) TitleText() string {
	if v.Title == nil {
		return ""
	}
	return *v.Title
}
