package normalize

import "strings"

// remoteMarkers covers both spellings of the word, with and without the diaeresis
var remoteMarkers = []string{"удален", "удалён"}

// IsRemote reports whether schedule or type-of-work text describes remote work
func IsRemote(text string) bool {
	text = strings.ToLower(text)
	for _, marker := range remoteMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
