package email

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	lineBreaks  = regexp.MustCompile(`(?i)<\s*(br\s*/?|/li|/tr)\s*>`)
	blockEnds   = regexp.MustCompile(`(?i)<\s*/(p|div|h[1-6]|table|ul|ol)\s*>`)
	headBlock   = regexp.MustCompile(`(?is)<head>.*</head>`)
	blankLines  = regexp.MustCompile(`\n\s*\n+`)
	stripPolicy = bluemonday.StrictPolicy()
)

// htmlToText - текстовая версия письма: конец абзаца дает пустую строку, <br> - перевод строки
func htmlToText(body string) string {
	text := headBlock.ReplaceAllString(body, "")
	text = blockEnds.ReplaceAllString(text, "\n\n")
	text = lineBreaks.ReplaceAllString(text, "\n")
	text = stripPolicy.Sanitize(text)
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
