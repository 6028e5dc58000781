package site

import (
	"html/template"
	"regexp"
	"strings"
)

var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// render turns the advice text subset (bold spans and "- " bullets) into HTML.
// Text is escaped before any markup is added.
func render(md string) template.HTML {
	var sb strings.Builder
	inList := false
	closeList := func() {
		if inList {
			sb.WriteString("</ul>\n")
			inList = false
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(md), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			closeList()
		case strings.HasPrefix(line, "- "):
			if !inList {
				sb.WriteString("<ul>\n")
				inList = true
			}
			sb.WriteString("<li>")
			sb.WriteString(inline(line[2:]))
			sb.WriteString("</li>\n")
		default:
			closeList()
			sb.WriteString("<p>")
			sb.WriteString(inline(line))
			sb.WriteString("</p>\n")
		}
	}
	closeList()
	return template.HTML(sb.String()) //nolint:gosec // content escaped in inline
}

func inline(s string) string {
	return boldRe.ReplaceAllString(template.HTMLEscapeString(s), "<strong>$1</strong>")
}
