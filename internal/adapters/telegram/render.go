package telegram

import "strings"

// Plain strips the markdown markers Telegram would otherwise show verbatim:
// "### " headings, "> " quotes and "**" bold spans. Bullets stay as they are.
func Plain(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(line, "### ")
		line = strings.TrimPrefix(line, "> ")
		lines[i] = strings.ReplaceAll(line, "**", "")
	}
	return strings.Join(lines, "\n")
}
