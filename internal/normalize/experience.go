package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Canonical experience buckets
const (
	ExperienceNone       = "Нет опыта"
	ExperienceOneToThree = "От 1 года до 3 лет"
	ExperienceThreeToSix = "От 3 до 6 лет"
	ExperienceSixPlus    = "Более 6 лет"
)

// ExperienceByCode maps numeric experience codes (superjob style) into buckets
func ExperienceByCode(code int) string {
	switch code {
	case 0, 1:
		return ExperienceNone
	case 2:
		return ExperienceOneToThree
	case 3:
		return ExperienceThreeToSix
	case 4:
		return ExperienceSixPlus
	default:
		return NotSpecified
	}
}

// ExperienceByYears maps a required number of years (trudvsem style) into buckets
func ExperienceByYears(years int) string {
	switch {
	case years < 0:
		return NotSpecified
	case years == 0:
		return ExperienceNone
	case years <= 3:
		return ExperienceOneToThree
	case years <= 6:
		return ExperienceThreeToSix
	default:
		return ExperienceSixPlus
	}
}

var experienceByID = map[string]string{
	"noExperience": ExperienceNone,
	"between1And3": ExperienceOneToThree,
	"between3And6": ExperienceThreeToSix,
	"moreThan6":    ExperienceSixPlus,
}

// ExperienceByID translates the hh enum ids one to one
func ExperienceByID(id string) string {
	if bucket, ok := experienceByID[id]; ok {
		return bucket
	}
	return NotSpecified
}

// ExperienceID is the inverse used to build hh search parameters from a bucket 1..4
func ExperienceID(bucket int) string {
	switch bucket {
	case 1:
		return "noExperience"
	case 2:
		return "between1And3"
	case 3:
		return "between3And6"
	case 4:
		return "moreThan6"
	}
	return ""
}

var firstNumberRe = regexp.MustCompile(`\d+`)

// ExperienceFromText buckets prose like "Опыт от 3 до 6 лет" by its lower bound.
// Text without a number or a "no experience" phrase is absent.
func ExperienceFromText(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.TrimSpace(lower) == "":
		return ""
	case strings.Contains(lower, "без опыта"),
		strings.Contains(lower, "нет опыта"),
		strings.Contains(lower, "не требуется"):
		return ExperienceNone
	}

	m := firstNumberRe.FindString(lower)
	if m == "" {
		return ""
	}
	years, _ := strconv.Atoi(m)
	switch {
	case years == 0:
		return ExperienceNone
	case years < 3:
		return ExperienceOneToThree
	case years < 6:
		return ExperienceThreeToSix
	default:
		return ExperienceSixPlus
	}
}
