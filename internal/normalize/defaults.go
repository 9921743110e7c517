// Package normalize holds the field-level rules shared by every source mapping:
// default values, remote detection, experience buckets, salary and date parsing.
package normalize

import "strings"

const (
	// NoDescription replaces missing narrative text
	NoDescription = "Нет описания"
	// NotSpecified replaces missing enumerable values
	NotSpecified = "Не указано"
)

// Optional trims s and returns nil when nothing is left
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// OrDefault trims s and falls back to placeholder when it is empty
func OrDefault(s, placeholder string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder
	}
	return s
}
