package normalize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLToText turns a rich-text description into markdown. The input is returned
// trimmed when it cannot be converted.
func HTMLToText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" || !strings.Contains(html, "<") {
		return html
	}
	text, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(text)
}
