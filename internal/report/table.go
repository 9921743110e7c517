// Package report renders search results for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/vacancy-aggregator/backend/internal/aggregator"
	"github.com/vacancy-aggregator/backend/internal/domain"
)

const (
	dateLayout  = "02.01.2006"
	maxTitleLen = 60
	dash        = "-"
)

var vacancyHeader = []string{"Board", "Title", "Company", "City", "Salary", "Published", "URL"}

// VacancyRows returns the table data with a header row
func VacancyRows(list []domain.Vacancy) [][]string {
	rows := make([][]string, 0, len(list)+1)
	rows = append(rows, vacancyHeader)
	for _, v := range list {
		rows = append(rows, []string{
			string(v.JobBoard),
			truncate(orDash(v.Title), maxTitleLen),
			orDash(v.Company),
			orDash(v.City),
			salary(v),
			published(v),
			orDash(v.URL),
		})
	}
	return rows
}

// SourceRows summarizes how every source did
func SourceRows(reports []aggregator.Report) [][]string {
	rows := [][]string{{"Source", "Found", "Requests", "Failures", "Took", "Error"}}
	for _, r := range reports {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		rows = append(rows, []string{
			string(r.Source),
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Failures),
			r.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	return rows
}

// Render writes the rows as a table with a header
func Render(w io.Writer, rows [][]string) error {
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(rows).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

// Headline prints the total in a section header
func Headline(w io.Writer, total int, title string) {
	text := fmt.Sprintf("%d vacancies", total)
	if title != "" {
		text += fmt.Sprintf(" for %q", title)
	}
	fmt.Fprintln(w, pterm.DefaultSection.Sprint(text))
}

func salary(v domain.Vacancy) string {
	text := strings.TrimSpace(v.SalaryText)
	if text == "" {
		return dash
	}
	if v.SalaryCurrency != "" && !strings.Contains(text, v.SalaryCurrency) {
		text += " " + v.SalaryCurrency
	}
	return text
}

func published(v domain.Vacancy) string {
	if v.PublishedAt == nil {
		return dash
	}
	return v.PublishedAt.Format(dateLayout)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return dash
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
