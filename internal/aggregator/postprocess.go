package aggregator

import (
	"sort"
	"strings"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// Process sorts by publication date and applies the filters requested by spec:
// title substring first, then remote only. When both are requested the title
// filter runs once more after the remote one.
func Process(list []domain.Vacancy, spec domain.RequestSpec) []domain.Vacancy {
	out := SortByDate(list)

	title := spec.Title()
	if title != "" {
		out = FilterTitle(out, title)
	}
	if spec.Remote() {
		out = FilterRemote(out)
		if title != "" {
			out = FilterTitle(out, title)
		}
	}
	return out
}

// SortByDate returns a copy ordered newest first. Undated records go last and
// equal dates keep their merge order.
func SortByDate(list []domain.Vacancy) []domain.Vacancy {
	out := make([]domain.Vacancy, len(list))
	copy(out, list)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

// FilterTitle keeps vacancies whose title contains keyword. Case-sensitive.
func FilterTitle(list []domain.Vacancy, keyword string) []domain.Vacancy {
	out := make([]domain.Vacancy, 0, len(list))
	for _, v := range list {
		if strings.Contains(v.TitleText(), keyword) {
			out = append(out, v)
		}
	}
	return out
}

// FilterRemote keeps remote vacancies
func FilterRemote(list []domain.Vacancy) []domain.Vacancy {
	out := make([]domain.Vacancy, 0, len(list))
	for _, v := range list {
		if v.Remote {
			out = append(out, v)
		}
	}
	return out
}

// DedupByURL keeps the first record of every url. Records without url are kept.
func DedupByURL(list []domain.Vacancy) []domain.Vacancy {
	seen := make(map[string]struct{}, len(list))
	out := make([]domain.Vacancy, 0, len(list))
	for _, v := range list {
		if link := v.Link(); link != "" {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}
